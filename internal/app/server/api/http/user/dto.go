package user

type credentials struct {
	Login    string `json:"login" minLength:"3" maxLength:"64"`
	Password string `json:"password" minLength:"8"`
}

type registerInput struct {
	Body credentials
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type loginInput struct {
	Body credentials
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
