package model

// Event types published on the shared bus after each committed mutation.
const (
	EventDocumentoCreado      = "documento.creado"
	EventDocumentoActualizado = "documento.actualizado"
	EventDocumentoEliminado   = "documento.eliminado"
)

// DocumentEvent is the payload of a document change event. Doc is the raw
// post-mutation document; nil when the document was physically removed.
type DocumentEvent struct {
	Path string                 `json:"path"`
	ID   string                 `json:"id"`
	Doc  map[string]interface{} `json:"doc,omitempty"`
}
