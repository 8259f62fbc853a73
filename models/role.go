package models

// Role, bir guild rolünü temsil eder.
// Permissions, rolün guild seviyesindeki (override öncesi) yetkileridir.
//
// everyone rolünün ID'si guild ID'sine eşittir; üyenin Roles listesinde yer almaz
// ama her üyenin base permission'ına dahil edilir.
type Role struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Color       int        `json:"color"`
	Position    int        `json:"position"`
	Permissions Permission `json:"permissions"`
	Managed     bool       `json:"managed"`
}

// Member, bir guild üyesi. Roles, üyenin sahip olduğu rol ID'leridir
// (everyone rolü hariç).
type Member struct {
	ID    string   `json:"id"`
	Nick  *string  `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}
