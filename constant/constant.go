package constant

type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypePdf   ContentType = "pdf"
	ContentTypeDoc   ContentType = "doc"
	ContentTypeFile  ContentType = "file"
)

func (c ContentType) String() string {
	return string(c)
}

// Aggregate labels stored on the lesson row. A lesson whose items share a single
// type carries that type; anything else collapses to one of these two.
const (
	AggregateNone  = "none"
	AggregateMixed = "mixed"
)

// Object name prefixes for uploaded lesson material.
const (
	PrefixVideo = "video_"
	PrefixPdf   = "pdf_"
	PrefixDoc   = "doc_"
)

// Upload ceilings, enforced before any network transfer.
const (
	MaxVideoBytes    int64 = 500 << 20
	MaxDocumentBytes int64 = 25 << 20
)

type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
