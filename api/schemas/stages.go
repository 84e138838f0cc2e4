package schemas

// BrandInput seeds the brand identity stage.
type BrandInput struct {
	Niche       string      `validate:"required"`
	Preferences Preferences `validate:"-"`
}

// BrandIdentity is the brand stage output: the store's name, voice and a six
// color palette of hex values.
type BrandIdentity struct {
	StoreName string   `json:"store_name" validate:"required"`
	Tagline   string   `json:"tagline" validate:"required"`
	Voice     string   `json:"voice" validate:"required"`
	Palette   []string `json:"palette" validate:"len=6,dive,hexcolor"`
}

// SourcingInput seeds the product sourcing stage.
type SourcingInput struct {
	Niche         string `validate:"required"`
	MaxCandidates int    `validate:"gt=0"`
	// SupplierCredentials are opaque tokens for connected suppliers, keyed by
	// supplier name. Resolution and issuance are external concerns.
	SupplierCredentials map[string]string `validate:"-"`
}

// SourcingOutput carries the ranked winners plus bookkeeping about how many
// raw candidates were considered before ranking.
type SourcingOutput struct {
	Winners    []*ScoutedCandidate `json:"winners" validate:"min=1"`
	Considered int                 `json:"considered"`
}

// LegalPageKind enumerates the pages every generated store must carry.
type LegalPageKind string

const (
	PageAbout   LegalPageKind = "about"
	PagePrivacy LegalPageKind = "privacy"
	PageTerms   LegalPageKind = "terms"
	PageRefund  LegalPageKind = "refund"
)

// RequiredLegalPages lists every page kind the copy stage must produce.
func RequiredLegalPages() []LegalPageKind {
	return []LegalPageKind{PageAbout, PagePrivacy, PageTerms, PageRefund}
}

// StorePage is one generated page of storefront copy.
type StorePage struct {
	Kind    LegalPageKind `json:"kind"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
}

// ProductCopy is the marketing copy generated for one winning product.
type ProductCopy struct {
	SourceID    string   `json:"source_id"`
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets"`
}

// CopyInput seeds the copywriting stage with the outputs of the two stages
// that precede it.
type CopyInput struct {
	Brand    BrandIdentity       `validate:"required"`
	Products []*ScoutedCandidate `validate:"min=1"`
}

// CopyOutput bundles the generated legal pages and per product copy.
type CopyOutput struct {
	Pages       []StorePage   `json:"pages"`
	ProductCopy []ProductCopy `json:"product_copy"`
}

// StoreArtifacts is the complete content of a successfully generated
// storefront, assembled by the orchestrator for whoever owns persistence.
type StoreArtifacts struct {
	Brand       BrandIdentity       `json:"brand"`
	Winners     []*ScoutedCandidate `json:"winners"`
	Pages       []StorePage         `json:"pages"`
	ProductCopy []ProductCopy       `json:"product_copy"`
}
