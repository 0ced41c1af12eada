package dto

type LoginInput struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	DeviceName *string `json:"device_name,omitempty"`
	IPAddress  string  `json:"-"`
	UserAgent  string  `json:"-"`
}
