// Package catalog maintains the local, paginated view of the remote product
// collection. Mutations touch local state only after the remote operation
// confirms; a monotonic sequence guard keeps rapid successive fetches from
// applying stale pages out of order.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vitrinecli/vitrine/internal/api"
	"github.com/vitrinecli/vitrine/internal/errs"
)

// Gateway is the slice of the API client the catalog store depends on.
type Gateway interface {
	ListProducts(ctx context.Context, filter string, page int) (api.ProductPage, error)
	CreateProduct(ctx context.Context, req api.CreateProductRequest) (api.Product, error)
	CreateProductFile(ctx context.Context, req api.CreateProductRequest, filename string, file io.Reader) (api.Product, error)
	UpdateProduct(ctx context.Context, id string, fields api.ProductFields) (api.Product, error)
	ReplaceThumbnailURL(ctx context.Context, id, thumbnailURL string) (api.Product, error)
	ReplaceThumbnailFile(ctx context.Context, id, filename string, file io.Reader) (api.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// View is a consistent snapshot of the collection state for rendering.
type View struct {
	Items      []api.Product
	Filter     string
	Page       int
	TotalPages int
	Loading    bool
	LastError  string
	Sort       *SortSpec
}

// Store is the collection state container. One instance per process,
// constructed at startup with the gateway it folds results back from.
type Store struct {
	mu  sync.Mutex
	gw  Gateway
	log *zap.Logger

	items      []api.Product
	filter     string
	sort       *SortSpec
	page       int
	totalPages int
	loading    bool
	lastError  string

	// issueSeq tags each fetch at issue time; a completion whose tag is no
	// longer the latest issued is stale and discarded.
	issueSeq uint64

	collator *collate.Collator
}

// New constructs the collection store. locale selects the collation used for
// title ordering; an unrecognized tag falls back to Portuguese.
func New(gw Gateway, locale string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return &Store{
		gw:       gw,
		log:      log,
		page:     1,
		collator: collate.New(tag, collate.IgnoreCase),
	}
}

// Fetch reloads the current page with the current filter. Items, page and
// totalPages are replaced atomically from one remote round trip.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	filter, page := s.filter, s.page
	s.mu.Unlock()
	return s.fetch(ctx, filter, page)
}

// Search sets the title filter, resets to page 1 and fetches.
func (s *Store) Search(ctx context.Context, filter string) error {
	return s.fetch(ctx, strings.TrimSpace(filter), 1)
}

// ChangePage fetches page n after bounds-checking it.
func (s *Store) ChangePage(ctx context.Context, n int) error {
	s.mu.Lock()
	total := s.totalPages
	filter := s.filter
	s.mu.Unlock()

	if n < 1 || (total > 0 && n > total) {
		return &errs.ValidationError{Field: "page", Reason: fmt.Sprintf("%d out of range 1..%d", n, total)}
	}
	return s.fetch(ctx, filter, n)
}

// fetch issues one list round trip tagged with a fresh sequence number. When
// the response lands, it is applied only if no newer fetch was issued in the
// meantime; a stale response is dropped so an earlier, slow page can never
// overwrite a later, fast one.
func (s *Store) fetch(ctx context.Context, filter string, page int) error {
	s.mu.Lock()
	s.issueSeq++
	seq := s.issueSeq
	s.filter = filter
	s.page = page
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	result, err := s.gw.ListProducts(ctx, filter, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issueSeq {
		s.log.Debug("stale fetch discarded",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.issueSeq))
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastError = errs.UserMessage(err)
		return err
	}
	s.items = result.Items
	if result.Page > 0 {
		s.page = result.Page
	}
	s.totalPages = result.TotalPages
	s.resortLocked()
	return nil
}

// CreateInput collects the fields of a new record. Exactly one thumbnail
// representation must be set: a local file path or a URL reference.
type CreateInput struct {
	Title         string
	Description   string
	ThumbnailURL  string
	ThumbnailFile string
	Status        bool
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &errs.ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &errs.ValidationError{Field: "description", Reason: "required"}
	}
	hasURL := in.ThumbnailURL != ""
	hasFile := in.ThumbnailFile != ""
	if hasURL == hasFile {
		return &errs.ValidationError{Field: "thumbnail", Reason: "exactly one of file or URL required"}
	}
	return nil
}

// Create validates the input, issues the remote create, and on success
// re-fetches the current page. Re-fetching is deliberate: server-side
// pagination and ordering may place the new record anywhere, so appending
// locally would risk a view inconsistent with the server.
func (s *Store) Create(ctx context.Context, in CreateInput) error {
	if err := in.validate(); err != nil {
		return s.fail(err)
	}

	req := api.CreateProductRequest{
		Title:       in.Title,
		Description: in.Description,
		Thumbnail:   in.ThumbnailURL,
		Status:      in.Status,
	}

	var err error
	if in.ThumbnailFile != "" {
		var f *os.File
		f, err = os.Open(in.ThumbnailFile)
		if err != nil {
			return s.fail(&errs.ValidationError{Field: "thumbnail", Reason: err.Error()})
		}
		defer f.Close()
		_, err = s.gw.CreateProductFile(ctx, req, filepath.Base(in.ThumbnailFile), f)
	} else {
		_, err = s.gw.CreateProduct(ctx, req)
	}
	if err != nil {
		return s.fail(err)
	}
	return s.Fetch(ctx)
}

// UpdateInput is a partial update; nil means "leave unchanged". A thumbnail
// change rides along as a second remote operation.
type UpdateInput struct {
	Title         *string
	Description   *string
	Status        *bool
	ThumbnailURL  string
	ThumbnailFile string
}

func (in UpdateInput) fields() api.ProductFields {
	fields := api.ProductFields{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	return fields
}

// Update runs the two-step update saga: PATCH the changed fields, then
// replace the thumbnail when one was supplied. The remote service has no
// combined atomic endpoint, so a thumbnail failure after a field success
// leaves the record partially updated; that state is reported as a
// PartialError, distinct from a full failure, and the applied field changes
// are kept locally.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) error {
	if id == "" {
		return s.fail(&errs.ValidationError{Field: "id", Reason: "required"})
	}
	if in.ThumbnailURL != "" && in.ThumbnailFile != "" {
		return s.fail(&errs.ValidationError{Field: "thumbnail", Reason: "file and URL are mutually exclusive"})
	}
	fields := in.fields()
	wantsThumbnail := in.ThumbnailURL != "" || in.ThumbnailFile != ""
	if len(fields) == 0 && !wantsThumbnail {
		return s.fail(&errs.ValidationError{Reason: "nothing to update"})
	}

	fieldsApplied := false
	if len(fields) > 0 {
		updated, err := s.gw.UpdateProduct(ctx, id, fields)
		if err != nil {
			return s.fail(err)
		}
		s.mergeRecord(id, updated, fields)
		fieldsApplied = true
	}

	if wantsThumbnail {
		updated, err := s.replaceThumbnail(ctx, id, in)
		if err != nil {
			if fieldsApplied {
				err = &errs.PartialError{Applied: "fields", Failed: "image", Err: err}
			}
			return s.fail(err)
		}
		s.mergeRecord(id, updated, api.ProductFields{"thumbnail": updated.Thumbnail})
	}
	return nil
}

func (s *Store) replaceThumbnail(ctx context.Context, id string, in UpdateInput) (api.Product, error) {
	if in.ThumbnailFile != "" {
		f, err := os.Open(in.ThumbnailFile)
		if err != nil {
			return api.Product{}, &errs.ValidationError{Field: "thumbnail", Reason: err.Error()}
		}
		defer f.Close()
		return s.gw.ReplaceThumbnailFile(ctx, id, filepath.Base(in.ThumbnailFile), f)
	}
	return s.gw.ReplaceThumbnailURL(ctx, id, in.ThumbnailURL)
}

// mergeRecord folds an update into the matching local record by id. The
// returned record wins when the server echoed one; otherwise the submitted
// fields are merged.
func (s *Store) mergeRecord(id string, returned api.Product, submitted api.ProductFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if returned.ID == id {
			s.items[i] = returned
		} else {
			applyFields(&s.items[i], submitted)
		}
		s.resortLocked()
		return
	}
}

func applyFields(p *api.Product, fields api.ProductFields) {
	for key, value := range fields {
		switch key {
		case "title":
			if v, ok := value.(string); ok {
				p.Title = v
			}
		case "description":
			if v, ok := value.(string); ok {
				p.Description = v
			}
		case "status":
			if v, ok := value.(bool); ok {
				p.Status = v
			}
		case "thumbnail":
			if v, ok := value.(string); ok {
				p.Thumbnail = v
			}
		}
	}
}

// Remove deletes the record remotely and drops it from the local view only
// on confirmed success. On failure the record stays and the error is
// surfaced; deleting an already-removed id reports the remote not-found.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.gw.DeleteProduct(ctx, id); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

// ClearError clears the last error without touching data.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// fail records and re-raises the error, mirroring the session store.
func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.lastError = errs.UserMessage(err)
	s.mu.Unlock()
	return err
}

// Snapshot returns a copy of the current state for rendering.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]api.Product, len(s.items))
	copy(items, s.items)
	var sortCopy *SortSpec
	if s.sort != nil {
		c := *s.sort
		sortCopy = &c
	}
	return View{
		Items:      items,
		Filter:     s.filter,
		Page:       s.page,
		TotalPages: s.totalPages,
		Loading:    s.loading,
		LastError:  s.lastError,
		Sort:       sortCopy,
	}
}

// Items returns a copy of the current page's records.
func (s *Store) Items() []api.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]api.Product, len(s.items))
	copy(items, s.items)
	return items
}

// Page returns the current page number.
func (s *Store) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TotalPages returns the last known page count.
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}

// Filter returns the active title filter.
func (s *Store) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the user-facing message of the last failed operation.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
