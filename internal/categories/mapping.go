package categories

import (
	"github.com/JaimeStill/courselens/pkg/query"
	"github.com/JaimeStill/courselens/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "categories", "cat").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	ProjectExpr("to_json(cat.keywords)", "Keywords").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "Name",
}

const returning = "RETURNING id, name, description, to_json(keywords), created_at, updated_at"

func scanCategory(s repository.Scanner) (Category, error) {
	var c Category
	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		repository.JSON(&c.Keywords),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	return c, err
}
