package models

// Employee is a directory record. It is read-only from the portal's side.
type Employee struct {
	ID         string     `json:"_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Image      string     `json:"image"`
	Department Department `json:"Department"`
}

// Department carries the nested role of an employee.
type Department struct {
	Name string         `json:"name,omitempty"`
	Role DepartmentRole `json:"Role"`
}

// DepartmentRole holds the position string shown in the directory.
type DepartmentRole struct {
	Position string `json:"position"`
}

// Position returns the employee's position, or an empty string.
func (e Employee) Position() string {
	return e.Department.Role.Position
}

// PageWindow is the pagination window acknowledged by the server.
type PageWindow struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// HasNext reports whether a page after Page exists.
func (w PageWindow) HasNext() bool {
	return w.Page*w.Limit < w.Total
}

// HasPrev reports whether a page before Page exists.
func (w PageWindow) HasPrev() bool {
	return w.Page > 1
}

// Pages returns the number of pages for Total at Limit.
func (w PageWindow) Pages() int {
	if w.Limit <= 0 || w.Total <= 0 {
		return 0
	}
	return (w.Total + w.Limit - 1) / w.Limit
}

// EmployeePage is the response of GET /employees.
type EmployeePage struct {
	Employees []Employee `json:"employees"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
}
