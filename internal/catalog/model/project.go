package model

import "time"

// Project is the server's top-level multi-tenancy unit; it holds zero or
// more warehouses. The nil project (empty ProjectID) is used when
// enable-default-project treats requests without X-Project-ID as
// targeting it (spec.md §6).
type Project struct {
	ID   ProjectID
	Name string

	Properties map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}
