package models

import (
	"database/sql/driver"
	"time"
)

// Module places a course at a position inside a learning path.
type Module struct {
	CourseID string `json:"course_id"`
	Order    int    `json:"order"`
}

// Modules is the ordered module list persisted as JSONB.
type Modules []Module

// Value implements driver.Valuer.
func (m Modules) Value() (driver.Value, error) {
	if m == nil {
		m = Modules{}
	}
	return jsonValue(m, "modules")
}

// Scan implements sql.Scanner.
func (m *Modules) Scan(value interface{}) error {
	*m = Modules{}
	return jsonScan(value, m, "modules")
}

// LearningPath groups courses into a supervised sequence.
type LearningPath struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Modules      Modules   `db:"modules" json:"modules"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseIDs lists the referenced courses in module order.
func (p *LearningPath) CourseIDs() []string {
	ids := make([]string, len(p.Modules))
	for i, m := range p.Modules {
		ids[i] = m.CourseID
	}
	return ids
}

// ReplaceModules discards the current modules and installs one per course id, ordered
// 0..n-1 by position.
func (p *LearningPath) ReplaceModules(courseIDs []string) {
	modules := make(Modules, len(courseIDs))
	for i, id := range courseIDs {
		modules[i] = Module{CourseID: id, Order: i}
	}
	p.Modules = modules
}

// IsSupervisor reports whether userID supervises the path.
func (p *LearningPath) IsSupervisor(userID string) bool {
	return p.SupervisorID != nil && *p.SupervisorID == userID
}
