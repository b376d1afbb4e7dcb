package zotero

// Item is one record in the remote library. All fields are optional at the
// decode boundary; absent fields unmarshal to zero values so downstream code
// never re-checks presence.
type Item struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Meta    ItemMeta `json:"meta"`
	Data    ItemData `json:"data"`
}

// ItemMeta carries upstream-computed metadata.
type ItemMeta struct {
	NumChildren    int    `json:"numChildren"`
	CreatorSummary string `json:"creatorSummary"`
	ParsedDate     string `json:"parsedDate"`
}

// ItemData is the editable payload of an item.
type ItemData struct {
	Key              string    `json:"key"`
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title"`
	Creators         []Creator `json:"creators"`
	AbstractNote     string    `json:"abstractNote"`
	PublicationTitle string    `json:"publicationTitle"`
	Date             string    `json:"date"`
	Tags             []Tag     `json:"tags"`
	Collections      []string  `json:"collections"`
	ParentItem       string    `json:"parentItem"`
	ContentType      string    `json:"contentType"`
	Filename         string    `json:"filename"`
	URL              string    `json:"url"`
}

// Creator is one author/editor entry. Structured names use FirstName and
// LastName; institutional names use the single Name field.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
}

// Tag is one tag attached to an item.
type Tag struct {
	Tag  string `json:"tag"`
	Type int    `json:"type"`
}

// Collection is one collection in the remote library.
type Collection struct {
	Key     string         `json:"key"`
	Version int            `json:"version"`
	Data    CollectionData `json:"data"`
}

// CollectionData is the editable payload of a collection.
type CollectionData struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	ParentCollection string `json:"parentCollection"`
}

// IsAttachment reports whether the item is an attachment record.
func (it *Item) IsAttachment() bool {
	return it.Data.ItemType == "attachment"
}

// IsPDFAttachment reports whether the item is a PDF attachment.
func (it *Item) IsPDFAttachment() bool {
	return it.IsAttachment() && it.Data.ContentType == "application/pdf"
}
