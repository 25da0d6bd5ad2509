package main

import "encoding/json"

// Envelope is the flat {success, message, ...} result of every operation.
type Envelope struct {
	Success bool
	Message string
	Fields  map[string]any
}

func okEnvelope(message string, fields map[string]any) Envelope {
	return Envelope{Success: true, Message: message, Fields: fields}
}

func failEnvelope(message string) Envelope {
	return Envelope{Message: message}
}

func (e Envelope) Get(key string) any {
	switch key {
	case "success":
		return e.Success
	case "message":
		return e.Message
	}
	return e.Fields[key]
}

func (e Envelope) Map() map[string]any {
	out := make(map[string]any, len(e.Fields)+2)
	if e.Success {
		for k, v := range e.Fields {
			out[k] = v
		}
	}
	out["success"] = e.Success
	out["message"] = e.Message
	return out
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}
