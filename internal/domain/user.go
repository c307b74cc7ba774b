package domain

// User is the authenticated identity returned by the shop API on login.
type User struct {
	ID      ID     `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Role    string `json:"role,omitempty"`
}
