package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ytetl/internal/ddl"
)

// Youtuber is a channel row.
type Youtuber struct {
	ID          int64   `json:"id"`
	NomCanal    string  `json:"nom_canal"`
	NomYoutuber string  `json:"nom_youtuber"`
	Descripcio  *string `json:"descripcio"`
	URLCanal    *string `json:"url_canal"`
}

// YoutuberRef is the youtuber summary embedded in other resources.
type YoutuberRef struct {
	ID          int64  `json:"id"`
	NomCanal    string `json:"nom_canal"`
	NomYoutuber string `json:"nom_youtuber"`
}

// Profile is a youtuber's social profile.
type Profile struct {
	ID                 int64        `json:"id"`
	YoutuberID         int64        `json:"youtuber_id"`
	URLTwitter         *string      `json:"url_twitter"`
	URLInstagram       *string      `json:"url_instagram"`
	URLWeb             *string      `json:"url_web"`
	InformacioContacte *string      `json:"informacio_contacte"`
	Youtuber           *YoutuberRef `json:"youtuber,omitempty"`
}

// Category is a video category.
type Category struct {
	ID         int64   `json:"id"`
	Titol      string  `json:"titol"`
	Descripcio *string `json:"descripcio"`
}

// Video is a video row, optionally with its youtuber and categories.
type Video struct {
	ID              int64        `json:"id"`
	YoutuberID      *int64       `json:"youtuber_id"`
	Titol           string       `json:"titol"`
	Descripcio      *string      `json:"descripcio"`
	URLVideo        string       `json:"url_video"`
	DataPublicacio  *string      `json:"data_publicacio"`
	Visualitzacions int64        `json:"visualitzacions"`
	Likes           int64        `json:"likes"`
	Youtuber        *YoutuberRef `json:"youtuber,omitempty"`
	Categories      []Category   `json:"categories,omitempty"`
}

// NewVideo is the body of POST /api/videos.
type NewVideo struct {
	Titol          string  `json:"titol"`
	Descripcio     *string `json:"descripcio"`
	URLVideo       string  `json:"url_video"`
	YoutuberID     int64   `json:"youtuber_id"`
	DataPublicacio *string `json:"data_publicacio"`
	Categories     []int64 `json:"categories"`
}

// NewUser is the body of POST /api/usuaris.
type NewUser struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Nom      *string `json:"nom"`
	Idioma   *string `json:"idioma"`
}

// User is the public view of a created user.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Nom          *string `json:"nom"`
	DataRegistre string  `json:"data_registre"`
	Idioma       *string `json:"idioma"`
}

// Store queries the seeded catalogue.
type Store struct {
	db *sql.DB
	d  ddl.Dialect
}

// NewStore wraps db. Queries are written with '?' and rebound for d.
func NewStore(db *sql.DB, d ddl.Dialect) *Store {
	return &Store{db: db, d: d}
}

func (s *Store) q(query string) string { return s.d.Rebind(query) }

// ListYoutubers returns every youtuber ordered by id.
func (s *Store) ListYoutubers(ctx context.Context) ([]Youtuber, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id, nom_canal, nom_youtuber, descripcio, url_canal FROM youtubers ORDER BY id`))
	if err != nil {
		return nil, fmt.Errorf("list youtubers: %w", err)
	}
	defer rows.Close()

	out := []Youtuber{}
	for rows.Next() {
		var (
			y         Youtuber
			desc, url sql.NullString
		)
		if err := rows.Scan(&y.ID, &y.NomCanal, &y.NomYoutuber, &desc, &url); err != nil {
			return nil, fmt.Errorf("scan youtuber: %w", err)
		}
		y.Descripcio, y.URLCanal = strPtr(desc), strPtr(url)
		out = append(out, y)
	}
	return out, rows.Err()
}

// GetYoutuber returns one youtuber or ErrNotFound.
func (s *Store) GetYoutuber(ctx context.Context, id int64) (*Youtuber, error) {
	var (
		y         Youtuber
		desc, url sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, nom_canal, nom_youtuber, descripcio, url_canal FROM youtubers WHERE id = ?`), id).
		Scan(&y.ID, &y.NomCanal, &y.NomYoutuber, &desc, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("youtuber %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get youtuber %d: %w", id, err)
	}
	y.Descripcio, y.URLCanal = strPtr(desc), strPtr(url)
	return &y, nil
}

// GetProfile returns the profile of youtuber id, with the youtuber embedded.
func (s *Store) GetProfile(ctx context.Context, youtuberID int64) (*Profile, error) {
	var (
		p                     Profile
		ref                   YoutuberRef
		tw, ig, web, contacte sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT p.id, p.youtuber_id, p.url_twitter, p.url_instagram, p.url_web, p.informacio_contacte,
		        y.id, y.nom_canal, y.nom_youtuber
		   FROM perfils_youtuber p JOIN youtubers y ON y.id = p.youtuber_id
		  WHERE p.youtuber_id = ?`), youtuberID).
		Scan(&p.ID, &p.YoutuberID, &tw, &ig, &web, &contacte, &ref.ID, &ref.NomCanal, &ref.NomYoutuber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile of youtuber %d: %w", youtuberID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", youtuberID, err)
	}
	p.URLTwitter, p.URLInstagram, p.URLWeb, p.InformacioContacte = strPtr(tw), strPtr(ig), strPtr(web), strPtr(contacte)
	p.Youtuber = &ref
	return &p, nil
}

const videoColumns = `v.id, v.youtuber_id, v.titol, v.descripcio, v.url_video, v.data_publicacio, v.visualitzacions, v.likes`

func scanVideo(sc interface{ Scan(...any) error }, extra ...any) (Video, error) {
	var (
		v            Video
		ytID         sql.NullInt64
		desc         sql.NullString
		date         any
		views, likes sql.NullInt64
	)
	dest := append([]any{&v.ID, &ytID, &v.Titol, &desc, &v.URLVideo, &date, &views, &likes}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return v, err
	}
	if ytID.Valid {
		v.YoutuberID = &ytID.Int64
	}
	v.Descripcio = strPtr(desc)
	v.DataPublicacio = dateString(date)
	v.Visualitzacions, v.Likes = views.Int64, likes.Int64
	return v, nil
}

// ListVideos returns every video with its channel name.
func (s *Store) ListVideos(ctx context.Context) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+videoColumns+`, y.id, y.nom_canal, y.nom_youtuber
		   FROM videos v LEFT JOIN youtubers y ON y.id = v.youtuber_id ORDER BY v.id`))
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()
	return collectVideos(rows, true)
}

// VideosByYoutuber returns the videos of youtuber id, or ErrNotFound when the
// youtuber does not exist.
func (s *Store) VideosByYoutuber(ctx context.Context, id int64) (*Youtuber, []Video, error) {
	y, err := s.GetYoutuber(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+videoColumns+` FROM videos v WHERE v.youtuber_id = ? ORDER BY v.id`), id)
	if err != nil {
		return nil, nil, fmt.Errorf("videos of youtuber %d: %w", id, err)
	}
	defer rows.Close()
	vs, err := collectVideos(rows, false)
	return y, vs, err
}

func collectVideos(rows *sql.Rows, withRef bool) ([]Video, error) {
	out := []Video{}
	for rows.Next() {
		var (
			v   Video
			err error
		)
		if withRef {
			var (
				rid       sql.NullInt64
				canal, nm sql.NullString
			)
			v, err = scanVideo(rows, &rid, &canal, &nm)
			if err == nil && rid.Valid {
				v.Youtuber = &YoutuberRef{ID: rid.Int64, NomCanal: canal.String, NomYoutuber: nm.String}
			}
		} else {
			v, err = scanVideo(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVideo returns one video with its youtuber, or ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	var (
		rid       sql.NullInt64
		canal, nm sql.NullString
	)
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT `+videoColumns+`, y.id, y.nom_canal, y.nom_youtuber
		   FROM videos v LEFT JOIN youtubers y ON y.id = v.youtuber_id WHERE v.id = ?`), id)
	v, err := scanVideo(row, &rid, &canal, &nm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video %d: %w", id, err)
	}
	if rid.Valid {
		v.Youtuber = &YoutuberRef{ID: rid.Int64, NomCanal: canal.String, NomYoutuber: nm.String}
	}
	return &v, nil
}

// VideoCategories returns the categories of video id, or ErrNotFound when the
// video does not exist.
func (s *Store) VideoCategories(ctx context.Context, id int64) ([]Category, error) {
	if _, err := s.GetVideo(ctx, id); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx,
		`SELECT c.id, c.titol, c.descripcio FROM categories c
		   JOIN videos_categories vc ON vc.categoria_id = c.id
		  WHERE vc.video_id = ? ORDER BY c.id`, id)
}

// ListCategories returns every category ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	return s.queryCategories(ctx, `SELECT c.id, c.titol, c.descripcio FROM categories c ORDER BY c.id`)
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var (
			c    Category
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Titol, &desc); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Descripcio = strPtr(desc)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateVideo inserts a video with zero counters and links it to the given
// categories that exist; unknown category ids are skipped. It returns
// ErrNotFound when the youtuber does not exist.
func (s *Store) CreateVideo(ctx context.Context, in NewVideo) (*Video, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetYoutuber(ctx, in.YoutuberID); err != nil {
		return nil, err
	}
	var date any
	if in.DataPublicacio != nil && *in.DataPublicacio != "" {
		t, err := time.Parse("2006-01-02", (*in.DataPublicacio)[:min(10, len(*in.DataPublicacio))])
		if err != nil {
			return nil, invalid("data_publicacio", "ha de ser una data AAAA-MM-DD")
		}
		date = t
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create video: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := nextID(ctx, tx, s, "videos")
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO videos (id, youtuber_id, titol, descripcio, url_video, data_publicacio, visualitzacions, likes)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0)`),
		id, in.YoutuberID, in.Titol, in.Descripcio, in.URLVideo, date)
	if err != nil {
		return nil, fmt.Errorf("create video: %w", classifyDB(err))
	}

	linked := 0
	for _, cid := range dedupIDs(in.Categories) {
		var one int
		err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM categories WHERE id = ?`), cid).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("api: unknown category skipped video=%d category=%d", id, cid)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create video: category %d: %w", cid, err)
		}
		if _, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO videos_categories (video_id, categoria_id) VALUES (?, ?)`), id, cid); err != nil {
			return nil, fmt.Errorf("create video: link %d: %w", cid, classifyDB(err))
		}
		linked++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create video: commit: %w", err)
	}
	log.Printf("api: video created id=%d youtuber=%d categories=%d", id, in.YoutuberID, linked)

	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Categories, err = s.VideoCategories(ctx, id); err != nil {
		return nil, err
	}
	return v, nil
}

func (in NewVideo) validate() error {
	e := &InputError{Kind: ErrInvalid}
	if strings.TrimSpace(in.Titol) == "" {
		e.Fields = append(e.Fields, FieldError{Field: "titol", Message: "és obligatori"})
	}
	if strings.TrimSpace(in.URLVideo) == "" {
		e.Fields = append(e.Fields, FieldError{Field: "url_video", Message: "és obligatori"})
	}
	if in.YoutuberID <= 0 {
		e.Fields = append(e.Fields, FieldError{Field: "youtuber_id", Message: "és obligatori"})
	}
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}

// CreateUser registers a user. Usernames shorter than 3 characters are
// rejected with ErrInvalid; a taken username or email yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var taken int
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*) FROM usuaris WHERE username = ? OR email = ?`), in.Username, in.Email).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if taken > 0 {
		return nil, &InputError{Kind: ErrDuplicate, Fields: []FieldError{
			{Field: "username", Message: "aquest usuari o email ja està registrat"},
		}}
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := nextID(ctx, tx, s, "usuaris")
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO usuaris (id, username, email, password, nom, data_registre, idioma) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, in.Username, in.Email, in.Password, in.Nom, now, in.Idioma)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", classifyDB(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create user: commit: %w", err)
	}
	log.Printf("api: user created id=%d username=%s", id, in.Username)
	return &User{
		ID: id, Username: in.Username, Email: in.Email, Nom: in.Nom,
		DataRegistre: now.Format(time.RFC3339), Idioma: in.Idioma,
	}, nil
}

func (in NewUser) validate() error {
	e := &InputError{Kind: ErrInvalid}
	if len([]rune(strings.TrimSpace(in.Username))) < 3 {
		e.Fields = append(e.Fields, FieldError{Field: "username", Message: "El nom d'usuari ha de tenir com a mínim 3 caràcters"})
	}
	if !strings.Contains(in.Email, "@") {
		e.Fields = append(e.Fields, FieldError{Field: "email", Message: "ha de ser un email vàlid"})
	}
	if in.Password == "" {
		e.Fields = append(e.Fields, FieldError{Field: "password", Message: "és obligatori"})
	}
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}

func nextID(ctx context.Context, tx *sql.Tx, s *Store, table string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM `+s.d.Quote(table)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", table, err)
	}
	return id, nil
}

func dedupIDs(in []int64) []int64 {
	seen := make(map[int64]struct{}, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// dateString renders a scanned date column as YYYY-MM-DD. Drivers return
// time.Time, string or []byte depending on the dialect.
func dateString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		s = t.Format("2006-01-02")
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	if len(s) >= 10 {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			s = s[:10]
		}
	}
	return &s
}
