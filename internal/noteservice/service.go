// Package noteservice coordinates the vault storage collaborator with the
// note engine: every operation reads current bytes, works on the parsed
// form, and re-serializes. No state survives between calls.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/edit"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/template"
)

// Update modes for CreateOrUpdate.
const (
	ModeOverwrite = "overwrite"
	ModePrepend   = "prepend"
	ModeAppend    = "append"
)

const defaultTemplatesDir = "templates"

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Frontmatter *frontmatter.Map `json:"frontmatter,omitempty"`
	Tags        []string         `json:"tags"`
	Links       []string         `json:"links"`
	Checksum    string           `json:"checksum"`
}

// SearchHit is one result of a vault search or related-notes scan.
type SearchHit struct {
	Path    string `json:"path"`
	Preview string `json:"preview,omitempty"`
}

// Paths holds the optional vault sub-directories a service resolves
// against.
type Paths struct {
	DailyNotes string // directory searched first for daily notes
	Templates  string // defaults to "templates"
}

// Service coordinates storage and engine operations.
type Service struct {
	store storage.Provider
	paths Paths
}

// NewService creates a new note service.
func NewService(store storage.Provider, paths Paths) *Service {
	if paths.Templates == "" {
		paths.Templates = defaultTemplatesDir
	}
	return &Service{store: store, paths: paths}
}

// ensureMD appends the .md extension when missing.
func ensureMD(p string) string {
	if strings.HasSuffix(p, ".md") {
		return p
	}
	return p + ".md"
}

// readNote reads and parses a note, mapping a missing file to ErrNotFound.
func (s *Service) readNote(relPath string) (models.Note, []byte, error) {
	data, err := s.store.Read(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Note{}, nil, fmt.Errorf("%s: %w", relPath, apperr.ErrNotFound)
		}
		return models.Note{}, nil, err
	}
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return models.Note{}, nil, fmt.Errorf("%s: %w", relPath, err)
	}
	return models.Note{Path: relPath, Frontmatter: fm, Body: body}, data, nil
}

func detail(note models.Note, raw []byte) *NoteDetail {
	title := ""
	if res, err := parser.Parse(raw); err == nil {
		title = res.Title
	}
	return &NoteDetail{
		Path:        note.Path,
		Title:       title,
		Body:        note.Body,
		Frontmatter: note.Frontmatter,
		Tags:        nonNil(parser.Tags(note.Frontmatter)),
		Links:       nonNil(parser.Links(note.Body)),
		Checksum:    checksum.Sum(raw),
	}
}

// GetNote reads a note and returns its parsed detail.
func (s *Service) GetNote(_ context.Context, notePath string) (*NoteDetail, error) {
	rel := ensureMD(notePath)
	note, raw, err := s.readNote(rel)
	if err != nil {
		return nil, err
	}
	return detail(note, raw), nil
}

// ListDirectory lists vault contents. With recursive, only .md files are
// returned (from all subdirectories); otherwise the immediate children,
// files and directories both. Limit and offset paginate; limit <= 0 means
// a default page of 50.
func (s *Service) ListDirectory(_ context.Context, dir string, recursive bool, limit, offset int) ([]models.DirectoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var items []models.DirectoryItem
	if recursive {
		metas, err := s.store.List(dir)
		if err != nil {
			return nil, err
		}
		for _, m := range metas {
			items = append(items, models.DirectoryItem{
				Path:   m.Path,
				Name:   path.Base(m.Path),
				IsFile: true,
				Size:   m.Size,
			})
		}
	} else {
		var err error
		items, err = s.store.ListDir(dir)
		if err != nil {
			return nil, err
		}
	}

	if offset >= len(items) {
		return []models.DirectoryItem{}, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// CreateOrUpdate writes a note. For an existing note, mode append/prepend
// splices content around the current body and the supplied properties are
// merged into the existing frontmatter (ordered: existing keys keep their
// position, new keys are appended). Mode overwrite replaces the file.
// ifMatch, when non-empty, must equal the current content checksum.
func (s *Service) CreateOrUpdate(_ context.Context, notePath, content string, props *frontmatter.Map, mode, ifMatch string) (*NoteDetail, error) {
	rel := ensureMD(notePath)
	if mode == "" {
		mode = ModeOverwrite
	}
	if mode != ModeOverwrite && mode != ModeAppend && mode != ModePrepend {
		return nil, fmt.Errorf("mode %q: %w", mode, apperr.ErrInvalidInput)
	}

	existing, existingRaw, err := s.readNote(rel)
	exists := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if ifMatch != "" {
		if !exists || !checksum.Match(ifMatch, existingRaw) {
			return nil, fmt.Errorf("%s: %w", rel, apperr.ErrConflict)
		}
	}

	var fm *frontmatter.Map
	var body string
	if exists && mode != ModeOverwrite {
		fm = frontmatter.Merge(existing.Frontmatter, props, nil)
		switch mode {
		case ModeAppend:
			body = existing.Body + "\n" + content
		case ModePrepend:
			body = content + "\n" + existing.Body
		}
	} else {
		fm = props
		body = content
		if fm.Len() > 0 && body != "" && !strings.HasPrefix(body, "\n") {
			// Blank separator line between the fence and a fresh body.
			body = "\n" + body
		}
	}

	raw := frontmatter.Serialize(fm, body)
	if err := s.store.Write(rel, raw); err != nil {
		return nil, err
	}
	return detail(models.Note{Path: rel, Frontmatter: fm, Body: body}, raw), nil
}

// DeleteItem removes a note (the .md extension is tried first) or a
// directory, recursively. It returns the path actually deleted.
func (s *Service) DeleteItem(_ context.Context, itemPath string) (string, error) {
	withExt := ensureMD(itemPath)
	if s.store.Exists(withExt) && !s.store.IsDir(withExt) {
		if err := s.store.Delete(withExt); err != nil {
			return "", err
		}
		return withExt, nil
	}
	if s.store.Exists(itemPath) {
		if err := s.store.DeleteAll(itemPath); err != nil {
			return "", err
		}
		return itemPath, nil
	}
	return "", fmt.Errorf("%s: %w", itemPath, apperr.ErrNotFound)
}

// Properties returns the ordered frontmatter mapping of a note.
func (s *Service) Properties(_ context.Context, notePath string) (*frontmatter.Map, error) {
	note, _, err := s.readNote(ensureMD(notePath))
	if err != nil {
		return nil, err
	}
	if note.Frontmatter == nil {
		return frontmatter.NewMap(), nil
	}
	return note.Frontmatter, nil
}

// UpdateProperties merges updates into a note's frontmatter and removes
// the listed keys, leaving the body untouched. Frontmatter is created
// when the note has none.
func (s *Service) UpdateProperties(_ context.Context, notePath string, updates *frontmatter.Map, removals []string) (*NoteDetail, error) {
	rel := ensureMD(notePath)
	note, _, err := s.readNote(rel)
	if err != nil {
		return nil, err
	}
	merged := frontmatter.Merge(note.Frontmatter, updates, removals)
	raw := frontmatter.Serialize(merged, note.Body)
	if err := s.store.Write(rel, raw); err != nil {
		return nil, err
	}
	return detail(models.Note{Path: rel, Frontmatter: merged, Body: note.Body}, raw), nil
}

// applyEdit runs op against the note's body and persists the result with
// the frontmatter untouched. The write happens only after the edit fully
// succeeds.
func (s *Service) applyEdit(notePath string, op edit.Operation) (*NoteDetail, error) {
	rel := ensureMD(notePath)
	note, _, err := s.readNote(rel)
	if err != nil {
		return nil, err
	}
	newBody, err := op.Apply(note.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	raw := frontmatter.Serialize(note.Frontmatter, newBody)
	if err := s.store.Write(rel, raw); err != nil {
		return nil, err
	}
	return detail(models.Note{Path: rel, Frontmatter: note.Frontmatter, Body: newBody}, raw), nil
}

// ReplaceText replaces occurrences of find within the note body.
func (s *Service) ReplaceText(_ context.Context, notePath, find, replace string, replaceAll bool) (*NoteDetail, error) {
	return s.applyEdit(notePath, edit.Operation{
		Kind:       edit.OpReplace,
		Target:     find,
		Content:    replace,
		ReplaceAll: replaceAll,
	})
}

// InsertText inserts content before or after a literal anchor in the body.
func (s *Service) InsertText(_ context.Context, notePath, target, content, position string, newlineBefore bool) (*NoteDetail, error) {
	kind := edit.OpInsertAfter
	switch position {
	case "", "after":
	case "before":
		kind = edit.OpInsertBefore
	default:
		return nil, fmt.Errorf("position %q: %w", position, apperr.ErrInvalidInput)
	}
	return s.applyEdit(notePath, edit.Operation{
		Kind:          kind,
		Target:        target,
		Content:       edit.DecodeNewlines(content),
		NewlineBefore: newlineBefore,
	})
}

// AppendToSection appends text to the section identified by header.
func (s *Service) AppendToSection(_ context.Context, notePath, header, text string) (*NoteDetail, error) {
	return s.applyEdit(notePath, edit.Operation{
		Kind:    edit.OpAppendSection,
		Target:  header,
		Content: text,
	})
}

// Search scans every note in the vault against q, linear in corpus size.
// Unreadable or unparsable notes are skipped rather than failing the scan.
func (s *Service) Search(_ context.Context, q search.Query) ([]SearchHit, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	var hits []SearchHit
	for _, meta := range metas {
		note, _, err := s.readNote(meta.Path)
		if err != nil {
			continue
		}
		m := search.Matches(note, q)
		if !m.Matched {
			continue
		}
		hit := SearchHit{Path: meta.Path}
		if len(m.Previews) > 0 {
			hit.Preview = m.Previews[0]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// FindRelated scans the vault for notes related to the source note by
// shared tags or by being a wikilink target. Results keep corpus order.
func (s *Service) FindRelated(_ context.Context, notePath string, on []string) ([]SearchHit, error) {
	rel := ensureMD(notePath)
	source, _, err := s.readNote(rel)
	if err != nil {
		return nil, err
	}
	src := parser.NewSource(source)
	criteria := parser.ParseCriteria(on)

	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	var hits []SearchHit
	for _, meta := range metas {
		if meta.Path == rel {
			continue
		}
		cand, _, err := s.readNote(meta.Path)
		if err != nil {
			continue
		}
		if ok, reason := src.Match(cand, criteria); ok {
			hits = append(hits, SearchHit{Path: meta.Path, Preview: reason})
		}
	}
	return hits, nil
}

// DailyNote resolves date ("today", "yesterday", "tomorrow", or
// YYYY-MM-DD) to a daily note. Candidate locations are checked in order:
// the configured daily-notes directory, the vault root, daily/, and
// "Daily Notes/".
func (s *Service) DailyNote(ctx context.Context, date string) (*NoteDetail, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	name := day.Format("2006-01-02") + ".md"

	var candidates []string
	if s.paths.DailyNotes != "" {
		candidates = append(candidates, path.Join(s.paths.DailyNotes, name))
	}
	candidates = append(candidates, name, path.Join("daily", name), path.Join("Daily Notes", name))

	for _, c := range candidates {
		if s.store.Exists(c) && !s.store.IsDir(c) {
			return s.GetNote(ctx, c)
		}
	}
	return nil, fmt.Errorf("daily note for %s: %w", day.Format("2006-01-02"), apperr.ErrNotFound)
}

func parseDate(date string) (time.Time, error) {
	today := time.Now()
	switch date {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be 'today', 'yesterday', 'tomorrow', or YYYY-MM-DD: %w", apperr.ErrInvalidInput)
	}
	return day, nil
}

// ListTemplates lists .md files in the templates directory, with paths
// relative to that directory so they feed straight into
// CreateFromTemplate. A missing templates directory yields an empty list.
func (s *Service) ListTemplates(_ context.Context) ([]models.DirectoryItem, error) {
	if !s.store.IsDir(s.paths.Templates) {
		return []models.DirectoryItem{}, nil
	}
	items, err := s.store.ListDir(s.paths.Templates)
	if err != nil {
		return nil, err
	}
	out := make([]models.DirectoryItem, 0, len(items))
	for _, item := range items {
		if !item.IsFile || !strings.HasSuffix(item.Name, ".md") {
			continue
		}
		item.Path = item.Name // relative to the templates dir
		out = append(out, item)
	}
	return out, nil
}

// CreateFromTemplate renders a template and writes the result to notePath.
// A template path starting with "/" is resolved against the vault root;
// anything else against the templates directory.
func (s *Service) CreateFromTemplate(_ context.Context, notePath, templatePath string, vars map[string]string) (*NoteDetail, error) {
	tmplRel := path.Join(s.paths.Templates, templatePath)
	if strings.HasPrefix(templatePath, "/") {
		tmplRel = strings.TrimPrefix(templatePath, "/")
	}
	data, err := s.store.Read(tmplRel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("template %s: %w", templatePath, apperr.ErrNotFound)
		}
		return nil, err
	}

	rendered := template.Render(string(data), vars)
	rel := ensureMD(notePath)
	if err := s.store.Write(rel, []byte(rendered)); err != nil {
		return nil, err
	}

	fm, body, err := frontmatter.Parse([]byte(rendered))
	if err != nil {
		// The rendered note was written; report it with empty metadata.
		return &NoteDetail{Path: rel, Body: rendered, Tags: []string{}, Links: []string{}, Checksum: checksum.Sum([]byte(rendered))}, nil
	}
	return detail(models.Note{Path: rel, Frontmatter: fm, Body: body}, []byte(rendered)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
