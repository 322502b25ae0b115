package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const schemaPrefix = "#/components/schemas/"

// endpoint describes one route for the OpenAPI document.
type endpoint struct {
	method  string
	path    string
	tag     string
	summary string
	body    string // component name of the request body, if any
	status  int
	result  *openapi3.SchemaRef
	errors  []int
}

// components returns the named schemas shared by the endpoints.
func components() openapi3.Schemas {
	str := openapi3.NewStringSchema
	nstr := func() *openapi3.Schema { return openapi3.NewStringSchema().WithNullable() }
	id := openapi3.NewInt64Schema

	youtuberRef := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("nom_canal", str()).
		WithProperty("nom_youtuber", str())

	youtuber := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("nom_canal", str()).
		WithProperty("nom_youtuber", str()).
		WithProperty("descripcio", nstr()).
		WithProperty("url_canal", nstr())

	category := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("titol", str()).
		WithProperty("descripcio", nstr())

	profile := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("youtuber_id", id()).
		WithProperty("url_twitter", nstr()).
		WithProperty("url_instagram", nstr()).
		WithProperty("url_web", nstr()).
		WithProperty("informacio_contacte", nstr()).
		WithPropertyRef("youtuber", schemaRef("YoutuberRef", youtuberRef))

	video := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("youtuber_id", id().WithNullable()).
		WithProperty("titol", str()).
		WithProperty("descripcio", nstr()).
		WithProperty("url_video", str()).
		WithProperty("data_publicacio", nstr().WithFormat("date")).
		WithProperty("visualitzacions", id()).
		WithProperty("likes", id()).
		WithPropertyRef("youtuber", schemaRef("YoutuberRef", youtuberRef)).
		WithPropertyRef("categories", arrayOf("Category", category))

	newVideo := openapi3.NewObjectSchema().
		WithProperty("titol", str()).
		WithProperty("descripcio", nstr()).
		WithProperty("url_video", str()).
		WithProperty("youtuber_id", id()).
		WithProperty("data_publicacio", nstr().WithFormat("date")).
		WithProperty("categories", openapi3.NewArraySchema().WithItems(id()))
	newVideo.Required = []string{"titol", "url_video", "youtuber_id"}

	newUser := openapi3.NewObjectSchema().
		WithProperty("username", str().WithMinLength(3)).
		WithProperty("email", str().WithFormat("email")).
		WithProperty("password", str().WithFormat("password")).
		WithProperty("nom", nstr()).
		WithProperty("idioma", nstr())
	newUser.Required = []string{"username", "email", "password"}

	user := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("username", str()).
		WithProperty("email", str()).
		WithProperty("nom", nstr()).
		WithProperty("data_registre", openapi3.NewDateTimeSchema()).
		WithProperty("idioma", nstr())

	fieldError := openapi3.NewObjectSchema().
		WithProperty("camp", str()).
		WithProperty("error", str())

	errBody := openapi3.NewObjectSchema().
		WithProperty("ok", openapi3.NewBoolSchema()).
		WithProperty("codi", str()).
		WithProperty("missatge", str()).
		WithPropertyRef("detalls", arrayOf("FieldError", fieldError))

	report := openapi3.NewObjectSchema().
		WithProperty("runId", str()).
		WithProperty("timestamp", openapi3.NewDateTimeSchema()).
		WithProperty("summary", openapi3.NewObjectSchema().
			WithProperty("structureValid", openapi3.NewBoolSchema()).
			WithProperty("referentialIntegrityValid", openapi3.NewBoolSchema()).
			WithProperty("hasDuplicates", openapi3.NewBoolSchema()).
			WithProperty("hasMissingData", openapi3.NewBoolSchema())).
		WithProperty("results", openapi3.NewObjectSchema())

	return openapi3.Schemas{
		"Youtuber":         openapi3.NewSchemaRef("", youtuber),
		"YoutuberRef":      openapi3.NewSchemaRef("", youtuberRef),
		"Profile":          openapi3.NewSchemaRef("", profile),
		"Category":         openapi3.NewSchemaRef("", category),
		"Video":            openapi3.NewSchemaRef("", video),
		"NewVideo":         openapi3.NewSchemaRef("", newVideo),
		"NewUser":          openapi3.NewSchemaRef("", newUser),
		"User":             openapi3.NewSchemaRef("", user),
		"FieldError":       openapi3.NewSchemaRef("", fieldError),
		"Error":            openapi3.NewSchemaRef("", errBody),
		"ValidationReport": openapi3.NewSchemaRef("", report),
	}
}

func schemaRef(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(schemaPrefix+name, s)
}

func arrayOf(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	arr := openapi3.NewArraySchema()
	arr.Items = schemaRef(name, s)
	return openapi3.NewSchemaRef("", arr)
}

// envelopeOf wraps result in the {ok, missatge, resultat} body.
func envelopeOf(result *openapi3.SchemaRef) *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("ok", openapi3.NewBoolSchema()).
		WithProperty("missatge", openapi3.NewStringSchema()).
		WithPropertyRef("resultat", result)
}

func endpoints(c openapi3.Schemas) []endpoint {
	one := func(name string) *openapi3.SchemaRef { return schemaRef(name, c[name].Value) }
	many := func(name string) *openapi3.SchemaRef { return arrayOf(name, c[name].Value) }
	videosOf := openapi3.NewObjectSchema().
		WithPropertyRef("youtuber", one("YoutuberRef")).
		WithPropertyRef("videos", many("Video"))

	return []endpoint{
		{http.MethodGet, "/api/youtubers", "youtubers", "List youtubers", "", http.StatusOK, many("Youtuber"), nil},
		{http.MethodGet, "/api/youtubers/{id}", "youtubers", "Get a youtuber", "", http.StatusOK, one("Youtuber"), []int{400, 404}},
		{http.MethodGet, "/api/youtubers/{id}/perfil", "youtubers", "Get a youtuber's profile", "", http.StatusOK, one("Profile"), []int{400, 404}},
		{http.MethodGet, "/api/youtubers/{id}/videos", "youtubers", "List a youtuber's videos", "", http.StatusOK, openapi3.NewSchemaRef("", videosOf), []int{400, 404}},
		{http.MethodGet, "/api/videos", "videos", "List videos", "", http.StatusOK, many("Video"), nil},
		{http.MethodPost, "/api/videos", "videos", "Create a video", "NewVideo", http.StatusCreated, one("Video"), []int{400}},
		{http.MethodGet, "/api/videos/{id}", "videos", "Get a video", "", http.StatusOK, one("Video"), []int{400, 404}},
		{http.MethodGet, "/api/videos/{id}/categories", "videos", "List a video's categories", "", http.StatusOK, many("Category"), []int{400, 404}},
		{http.MethodGet, "/api/categories", "categories", "List categories", "", http.StatusOK, many("Category"), nil},
		{http.MethodPost, "/api/usuaris", "usuaris", "Register a user", "NewUser", http.StatusCreated, one("User"), []int{400, 409}},
		{http.MethodPost, "/api/validacio", "validacio", "Run the catalogue checks", "", http.StatusOK, one("ValidationReport"), []int{503}},
	}
}

// OpenAPI builds the API description served at /openapi.json.
func OpenAPI() *openapi3.T {
	c := components()
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "ytetl catalogue API",
			Description: "YouTuber catalogue and data-integrity checks.",
			Version:     "1.0.0",
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: c},
	}
	errRef := schemaRef("Error", c["Error"].Value)

	for _, e := range endpoints(c) {
		op := openapi3.NewOperation()
		op.Summary = e.summary
		op.Tags = []string{e.tag}
		op.OperationID = operationID(e.method, e.path)
		if strings.Contains(e.path, "{id}") {
			op.AddParameter(openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema()))
		}
		if e.body != "" {
			op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(schemaRef(e.body, c[e.body].Value))}
		}
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(e.status, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(http.StatusText(e.status)).
				WithJSONSchema(envelopeOf(e.result)),
		}))
		for _, code := range append(e.errors, http.StatusInternalServerError) {
			op.AddResponse(code, openapi3.NewResponse().
				WithDescription(http.StatusText(code)).
				WithJSONSchemaRef(errRef))
		}
		doc.AddOperation(e.path, e.method, op)
	}
	return doc
}

// operationID renders "GET /api/videos/{id}/categories" as "getVideosIdCategories".
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, part := range strings.Split(strings.TrimPrefix(path, "/api/"), "/") {
		part = strings.Trim(part, "{}")
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.doc)
}

func serveDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>ytetl catalogue API</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@scalar/api-reference@1.44.16/dist/style.min.css" />
</head>
<body>
    <script id="api-reference" data-url="/openapi.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference@1.44.16/dist/browser/standalone.min.js"></script>
</body>
</html>`)
}
