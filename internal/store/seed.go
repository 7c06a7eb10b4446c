package store

import "github.com/tordrt/schemagen/internal/schema"

// DefaultWorkspace is the sample project a fresh session starts with
func DefaultWorkspace() *schema.Workspace {
	db := schema.DefaultDatabaseID
	return &schema.Workspace{
		Project: schema.Project{
			Databases:        []schema.Database{{ID: db, Name: schema.DefaultDatabaseName}},
			ActiveDatabaseID: db,
			Collections: []*schema.Entity{
				{
					ID: "1", DatabaseID: db, Type: "collection",
					Position: schema.Position{X: 250, Y: 5},
					Data: schema.EntityData{Label: "Users", Fields: []*schema.Field{
						{ID: "f1", Name: "_id", Type: "ObjectId", Key: true},
						{ID: "f2", Name: "username", Type: "String"},
						{ID: "f3", Name: "email", Type: "String"},
						{ID: "f-addr", Name: "address", Type: "Object", Children: []*schema.Field{
							{ID: "f-city", Name: "city", Type: "String"},
							{ID: "f-zip", Name: "zip", Type: "Number"},
						}},
					}},
				},
				{
					ID: "2", DatabaseID: db, Type: "collection",
					Position: schema.Position{X: 100, Y: 250},
					Data: schema.EntityData{Label: "Posts", Fields: []*schema.Field{
						{ID: "f4", Name: "_id", Type: "ObjectId", Key: true},
						{ID: "f5", Name: "title", Type: "String"},
						{ID: "f6", Name: "author_id", Type: "ObjectId", Ref: "Users"},
					}},
				},
			},
			Edges: []schema.Edge{{
				ID: "e1-2", DatabaseID: db, Source: "1", Target: "2",
				SourceHandle: "f1", TargetHandle: "f6",
				Animated: true, Style: map[string]string{"stroke": "#10b981"},
			}},
		},
	}
}
