package sink

import (
	"io"

	json "github.com/goccy/go-json"
)

// Message types of the line protocol spoken with a hosting pipeline.
const (
	TypeRecord           = "RECORD"
	TypeSpec             = "SPEC"
	TypeConnectionStatus = "CONNECTION_STATUS"
	TypeCatalog          = "CATALOG"
	TypeLog              = "LOG"
)

// Message is one line of output. Exactly one payload field is set,
// matching Type.
type Message struct {
	Type             string         `json:"type"`
	Record           *RecordMessage `json:"record,omitempty"`
	Spec             any            `json:"spec,omitempty"`
	ConnectionStatus any            `json:"connectionStatus,omitempty"`
	Catalog          any            `json:"catalog,omitempty"`
	Log              *LogMessage    `json:"log,omitempty"`
}

// RecordMessage is the payload of a RECORD message.
type RecordMessage struct {
	Stream    string         `json:"stream"`
	Data      map[string]any `json:"data"`
	EmittedAt int64          `json:"emitted_at"`
}

// LogMessage is the payload of a LOG message.
type LogMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewRecordMessage wraps rec in a RECORD message. EmittedAt is in
// milliseconds since the Unix epoch.
func NewRecordMessage(rec Record) Message {
	data := map[string]any(rec.Data)
	if data == nil {
		data = map[string]any{}
	}
	return Message{
		Type: TypeRecord,
		Record: &RecordMessage{
			Stream:    rec.Stream,
			Data:      data,
			EmittedAt: rec.EmittedAt.UnixMilli(),
		},
	}
}

// WriteMessage encodes m as a single JSON line.
func WriteMessage(w io.Writer, m Message) error {
	line, err := json.Marshal(m)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = w.Write(line)
	return err
}
