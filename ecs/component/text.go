package component

// Text is a UI label drawn at the entity transform.
type Text struct {
	Content string
}

var TextComponent = NewComponent[Text]()
