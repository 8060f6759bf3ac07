package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>home-server library</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
tr:hover { background: #f5f5f5; }
</style>
</head>
<body>
<h1>Library</h1>
<p>{{len .Rows}} tracks</p>
<table>
<tr><th>Track</th><th>Artist</th><th>Album</th><th>Type</th><th>Duration</th><th>Size</th><th></th></tr>
{{range .Rows}}<tr>
<td>{{.Name}}</td>
<td>{{.Artist}}</td>
<td>{{.Album}}</td>
<td>{{.Type}}</td>
<td>{{.Duration}}</td>
<td>{{.Size}}</td>
<td><a href="/tracks/{{.ID}}">play</a></td>
</tr>
{{end}}</table>
</body>
</html>
`))

type indexRow struct {
	ID       string
	Name     string
	Artist   string
	Album    string
	Type     string
	Duration string
	Size     string
}

type indexData struct {
	Rows []indexRow
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	ctx := c.Context()

	tracks, err := s.store.AllTracks(ctx)
	if err != nil {
		return s.internalError(c, "list tracks", err)
	}
	albums, err := s.store.AllAlbums(ctx)
	if err != nil {
		return s.internalError(c, "list albums", err)
	}
	artists, err := s.store.AllArtists(ctx)
	if err != nil {
		return s.internalError(c, "list artists", err)
	}

	artistNames := make(map[uuid.UUID]string, len(artists))
	for _, artist := range artists {
		artistNames[artist.ID] = artist.Name
	}
	albumNames := make(map[uuid.UUID]string, len(albums))
	albumArtists := make(map[uuid.UUID]string, len(albums))
	for _, album := range albums {
		albumNames[album.ID] = album.Name
		albumArtists[album.ID] = artistNames[album.ArtistID]
	}

	data := indexData{Rows: make([]indexRow, 0, len(tracks))}
	for _, track := range tracks {
		data.Rows = append(data.Rows, indexRow{
			ID:       track.ID.String(),
			Name:     track.Name,
			Artist:   albumArtists[track.AlbumID],
			Album:    albumNames[track.AlbumID],
			Type:     track.FileType.String(),
			Duration: formatDuration(track.Duration),
			Size:     humanize.Bytes(uint64(track.FileSize)),
		})
	}
	sort.Slice(data.Rows, func(i, j int) bool {
		if data.Rows[i].Artist != data.Rows[j].Artist {
			return data.Rows[i].Artist < data.Rows[j].Artist
		}
		if data.Rows[i].Album != data.Rows[j].Album {
			return data.Rows[i].Album < data.Rows[j].Album
		}
		return data.Rows[i].Name < data.Rows[j].Name
	})

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return s.internalError(c, "render index", err)
	}
	c.Type("html")
	return c.Send(buf.Bytes())
}

func (s *Server) handleTrackFile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid track id"})
	}

	track, err := s.store.TrackByID(c.Context(), id)
	if err != nil {
		return s.internalError(c, "look up track", err)
	}
	if track == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not found"})
	}

	// The catalog may be ahead of disk between syncs.
	if _, err := os.Stat(track.FilePath); errors.Is(err, fs.ErrNotExist) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track file missing on disk"})
	}
	return c.SendFile(track.FilePath)
}

func (s *Server) internalError(c *fiber.Ctx, verb string, err error) error {
	s.logger.Error("request failed", "verb", verb, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
