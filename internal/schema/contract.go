package schema

// Field maps one CSV field onto one database column.
type Field struct {
	// Name is the destination column name.
	Name string `json:"name"`

	// Source is the CSV field the value is read from.
	Source string `json:"source"`

	// Type is a logical type: "int" | "text" | "string" | "date" | "bool".
	Type       string `json:"type"`
	Required   bool   `json:"required,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`

	// References names the parent table of a foreign key column.
	References string `json:"references,omitempty"`
}

// Contract describes how one CSV table lands in one database table.
type Contract struct {
	// Name is the destination table.
	Name string `json:"name"`

	// Source is the CSV table name the rows come from.
	Source string  `json:"source"`
	Fields []Field `json:"fields"`
}

// Columns returns the destination column names in declaration order.
func (c Contract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// KeyColumns returns the primary key columns in declaration order.
func (c Contract) KeyColumns() []string {
	var out []string
	for _, f := range c.Fields {
		if f.PrimaryKey {
			out = append(out, f.Name)
		}
	}
	return out
}

// Catalogue returns the database contracts in dependency order: every table
// appears after the tables its foreign keys reference.
func Catalogue() []Contract {
	return []Contract{
		{
			Name:   "youtubers",
			Source: Youtubers,
			Fields: []Field{
				{Name: "id", Source: "id", Type: "int", PrimaryKey: true, Required: true},
				{Name: "nom_canal", Source: "channel_name", Type: "string", Required: true},
				{Name: "nom_youtuber", Source: "youtuber_name", Type: "string", Required: true},
				{Name: "descripcio", Source: "description", Type: "text"},
				{Name: "url_canal", Source: "channel_url", Type: "string"},
			},
		},
		{
			Name:   "perfils_youtuber",
			Source: Profiles,
			Fields: []Field{
				{Name: "id", Source: "id", Type: "int", PrimaryKey: true, Required: true},
				{Name: "youtuber_id", Source: "youtuber_id", Type: "int", References: "youtubers"},
				{Name: "url_twitter", Source: "twitter_url", Type: "string"},
				{Name: "url_instagram", Source: "instagram_url", Type: "string"},
				{Name: "url_web", Source: "website_url", Type: "string"},
				{Name: "informacio_contacte", Source: "contact_info", Type: "string"},
			},
		},
		{
			Name:   "categories",
			Source: Categories,
			Fields: []Field{
				{Name: "id", Source: "id", Type: "int", PrimaryKey: true, Required: true},
				{Name: "titol", Source: "name", Type: "string", Required: true},
				{Name: "descripcio", Source: "description", Type: "text"},
			},
		},
		{
			Name:   "videos",
			Source: Videos,
			Fields: []Field{
				{Name: "id", Source: "id", Type: "int", PrimaryKey: true, Required: true},
				{Name: "youtuber_id", Source: "youtuber_id", Type: "int", References: "youtubers"},
				{Name: "titol", Source: "title", Type: "string", Required: true},
				{Name: "descripcio", Source: "description", Type: "text"},
				{Name: "url_video", Source: "video_url", Type: "string", Required: true},
				{Name: "data_publicacio", Source: "publication_date", Type: "date"},
				{Name: "visualitzacions", Source: "views", Type: "int"},
				{Name: "likes", Source: "likes", Type: "int"},
			},
		},
		{
			Name:   "videos_categories",
			Source: VideoCategories,
			Fields: []Field{
				{Name: "video_id", Source: "video_id", Type: "int", PrimaryKey: true, Required: true, References: "videos"},
				{Name: "categoria_id", Source: "category_id", Type: "int", PrimaryKey: true, Required: true, References: "categories"},
			},
		},
		{
			Name:   "usuaris",
			Source: Users,
			Fields: []Field{
				{Name: "id", Source: "id", Type: "int", PrimaryKey: true, Required: true},
				{Name: "username", Source: "username", Type: "string", Required: true, Unique: true},
				{Name: "email", Source: "email", Type: "string", Required: true, Unique: true},
				{Name: "password", Source: "password", Type: "text", Required: true},
				{Name: "nom", Source: "nom", Type: "string"},
				{Name: "data_registre", Source: "data_registre", Type: "date"},
				{Name: "idioma", Source: "idioma", Type: "string"},
			},
		},
	}
}
