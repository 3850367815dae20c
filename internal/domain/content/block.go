package content

import (
	"regexp"
	"strings"

	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// keyPattern accepts dotted lowercase keys such as "home.hero" or "about.story-1"
var keyPattern = regexp.MustCompile(`^[a-z0-9]+(?:[.\-_][a-z0-9]+)*$`)

// Block is an editable piece of multilingual site content (hero banner, about
// text, footer links). Data holds free-form structured extras for the client.
type Block struct {
	shared.BaseAggregateRoot
	Key       string
	Page      string
	Title     valueobject.LocalizedText
	Body      valueobject.LocalizedText
	ImageURL  string
	Data      map[string]any
	Published bool
	SortOrder int
}

// BlockInput carries the editable attributes of a block
type BlockInput struct {
	Page      string
	Title     valueobject.LocalizedText
	Body      valueobject.LocalizedText
	ImageURL  string
	Data      map[string]any
	SortOrder int
}

// NewBlock creates an unpublished block
func NewBlock(key string, in BlockInput) (*Block, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	b := &Block{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Key:               key,
	}
	if err := b.apply(in); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the editable attributes
func (b *Block) Update(in BlockInput) error {
	if err := b.apply(in); err != nil {
		return err
	}
	b.IncrementVersion()
	return nil
}

func (b *Block) apply(in BlockInput) error {
	page := strings.ToLower(strings.TrimSpace(in.Page))
	if page == "" {
		page, _, _ = strings.Cut(b.Key, ".")
	}
	if in.Title.IsEmpty() && in.Body.IsEmpty() && strings.TrimSpace(in.ImageURL) == "" && len(in.Data) == 0 {
		return shared.NewDomainError("EMPTY_CONTENT", "Content block needs a title, body, image or data")
	}
	b.Page = page
	b.Title = orEmpty(in.Title)
	b.Body = orEmpty(in.Body)
	b.ImageURL = strings.TrimSpace(in.ImageURL)
	b.Data = in.Data
	if b.Data == nil {
		b.Data = map[string]any{}
	}
	b.SortOrder = in.SortOrder
	return nil
}

// Publish makes the block visible on the storefront
func (b *Block) Publish() {
	if b.Published {
		return
	}
	b.Published = true
	b.IncrementVersion()
}

// Unpublish hides the block
func (b *Block) Unpublish() {
	if !b.Published {
		return
	}
	b.Published = false
	b.IncrementVersion()
}

// ValidateKey checks a content key
func ValidateKey(key string) error {
	if key == "" || len(key) > 100 || !keyPattern.MatchString(key) {
		return shared.NewDomainError("INVALID_KEY", "Content key must be lowercase words separated by dots, dashes or underscores")
	}
	return nil
}

func orEmpty(t valueobject.LocalizedText) valueobject.LocalizedText {
	if t == nil {
		return valueobject.LocalizedText{}
	}
	return t
}
