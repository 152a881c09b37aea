package mutation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

const (
	// SchemaKeyPrefix prefixes every stored schema row.
	SchemaKeyPrefix = "rank_math_schema_"
	// RichSnippetKey names the post's primary rich snippet type.
	RichSnippetKey = "rank_math_rich_snippet"
)

// ManagedPrefixes are the meta keys this package owns. Backups and
// rollbacks cover exactly these rows.
var ManagedPrefixes = []string{SchemaKeyPrefix, RichSnippetKey}

var typeNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// KeyFor returns the meta key for an entity, rank_math_schema_<@type>.
func KeyFor(e schema.Entity) (string, error) {
	typ := strings.TrimSpace(e.SchemaType())
	if !typeNameRe.MatchString(typ) {
		return "", fmt.Errorf("%w: cannot derive a meta key from @type %q", models.ErrUnsupportedType, typ)
	}
	return SchemaKeyPrefix + typ, nil
}

// SnippetFor is the rich snippet value stored for a primary entity.
func SnippetFor(e schema.Entity) string {
	switch e.Kind() {
	case schema.KindService:
		return "service"
	case schema.KindArticle:
		return "article"
	case schema.KindBusiness, schema.KindOrganization:
		return "local"
	}
	return strings.ToLower(e.SchemaType())
}

func isManaged(key string) bool {
	return key == RichSnippetKey || strings.HasPrefix(key, SchemaKeyPrefix)
}
