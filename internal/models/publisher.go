package models

// Author — краткие сведения об авторе записи.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Publisher — издатель, к которому привязываются статьи.
type Publisher struct {
	ID     string `json:"_id,omitempty"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Author Author `json:"author"`
}
