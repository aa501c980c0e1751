package server

import (
	"bytes"
	"errors"
	"net"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ppiankov/vacdash/internal/charts"
	"github.com/ppiankov/vacdash/internal/model"
	"github.com/ppiankov/vacdash/internal/pipeline"
)

// pageData is what the dashboard template renders
type pageData struct {
	Snapshot *model.Snapshot
	Charts   []chartLink
	Error    string
}

type chartLink struct {
	Name string
	URL  string
	Alt  string
}

var chartAlt = map[string]string{
	charts.NameGender:      "Gender Distribution",
	charts.NameVaccination: "Vaccination Status by Age Group",
	charts.NameMap:         "Geographic Coverage",
}

func (s *Server) handlePage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	snap, err := s.source.Dashboard(c.UserContext())
	if err != nil {
		s.logger.Error().Err(err).Msg("dashboard unavailable")
		var buf bytes.Buffer
		if tplErr := s.page.Execute(&buf, pageData{Error: err.Error()}); tplErr != nil {
			return tplErr
		}
		return c.Status(statusFor(err)).Send(buf.Bytes())
	}

	links := make([]chartLink, 0, len(charts.Names))
	for _, name := range charts.Names {
		links = append(links, chartLink{
			Name: name,
			URL:  "/charts/" + name + ".svg?v=" + snap.ID,
			Alt:  chartAlt[name],
		})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, pageData{Snapshot: snap, Charts: links}); err != nil {
		return err
	}
	return c.Send(buf.Bytes())
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	snap, err := s.source.Dashboard(c.UserContext())
	if err != nil {
		return s.errorJSON(c, err)
	}
	if notModified(c, snap) {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(snap)
}

func (s *Server) handleRecordsCSV(c *fiber.Ctx) error {
	snap, err := s.source.Dashboard(c.UserContext())
	if err != nil {
		return s.errorJSON(c, err)
	}
	if notModified(c, snap) {
		return c.SendStatus(fiber.StatusNotModified)
	}

	var buf bytes.Buffer
	if err := pipeline.WriteCSV(&buf, snap.Table); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="records.csv"`)
	return c.Send(buf.Bytes())
}

func (s *Server) handleChart(c *fiber.Ctx) error {
	file := c.Params("file")
	ext := path.Ext(file)
	name := strings.TrimSuffix(file, ext)

	format, err := charts.ParseFormat(ext)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	snap, err := s.source.Dashboard(c.UserContext())
	if err != nil {
		return s.errorJSON(c, err)
	}
	if notModified(c, snap) {
		return c.SendStatus(fiber.StatusNotModified)
	}

	var buf bytes.Buffer
	if err := charts.Render(name, snap.Dashboard, format, &buf); err != nil {
		if errors.Is(err, charts.ErrUnknownChart) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return err
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	if !s.refresh.Allow("http://" + net.JoinHostPort(c.IP(), "0")) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "refresh rate limit exceeded"})
	}

	snap, err := s.source.Refresh(c.UserContext())
	if err != nil {
		return s.errorJSON(c, err)
	}
	s.logger.Info().Str("snapshot", snap.ID).Str("client", c.IP()).Msg("dashboard refreshed")
	c.Set(fiber.HeaderETag, etag(snap))
	return c.JSON(fiber.Map{
		"id":         snap.ID,
		"fetched_at": snap.FetchedAt,
		"records":    snap.Dashboard.Records,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.source.CacheHealth(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"cache": "down", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) errorJSON(c *fiber.Ctx, err error) error {
	s.logger.Error().Err(err).Str("path", c.Path()).Msg("dashboard unavailable")
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps pipeline failures to upstream errors; anything else is ours
func statusFor(err error) int {
	if pipeline.IsFatal(err) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func etag(snap *model.Snapshot) string {
	return `"` + snap.ID + `"`
}

// notModified sets the ETag header and reports whether the client copy is current
func notModified(c *fiber.Ctx, snap *model.Snapshot) bool {
	tag := etag(snap)
	c.Set(fiber.HeaderETag, tag)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Get(fiber.HeaderIfNoneMatch) == tag
}
