package service

import (
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"

	"github.com/funvibe/pyretscan/internal/token"
)

type ScanRequest struct {
	State      []byte
	Source     string
	Offset     int
	Candidates []string
	Valid      []bool
}

type ScanResponse struct {
	Produced bool
	Symbol   string
	Start    int
	End      int
	State    []byte
}

type TokenizeRequest struct {
	Source     string
	Candidates []string
}

type TokenizeResponse struct {
	Tokens []token.Token
}

func (r ScanRequest) toMessage(md *desc.MessageDescriptor) *dynamic.Message {
	msg := dynamic.NewMessage(md)
	msg.SetFieldByName("state", r.State)
	msg.SetFieldByName("source", r.Source)
	msg.SetFieldByName("offset", uint32(r.Offset))
	for _, c := range r.Candidates {
		msg.AddRepeatedFieldByName("candidates", c)
	}
	for _, v := range r.Valid {
		msg.AddRepeatedFieldByName("valid", v)
	}
	return msg
}

func scanRequestFrom(msg *dynamic.Message) ScanRequest {
	return ScanRequest{
		State:      bytesField(msg, "state"),
		Source:     stringField(msg, "source"),
		Offset:     int(uint32Field(msg, "offset")),
		Candidates: stringsField(msg, "candidates"),
		Valid:      boolsField(msg, "valid"),
	}
}

func (r ScanResponse) toMessage(md *desc.MessageDescriptor) *dynamic.Message {
	msg := dynamic.NewMessage(md)
	msg.SetFieldByName("produced", r.Produced)
	msg.SetFieldByName("symbol", r.Symbol)
	msg.SetFieldByName("start", uint32(r.Start))
	msg.SetFieldByName("end", uint32(r.End))
	msg.SetFieldByName("state", r.State)
	return msg
}

func scanResponseFrom(msg *dynamic.Message) ScanResponse {
	produced, _ := msg.GetFieldByName("produced").(bool)
	return ScanResponse{
		Produced: produced,
		Symbol:   stringField(msg, "symbol"),
		Start:    int(uint32Field(msg, "start")),
		End:      int(uint32Field(msg, "end")),
		State:    bytesField(msg, "state"),
	}
}

func (r TokenizeRequest) toMessage(md *desc.MessageDescriptor) *dynamic.Message {
	msg := dynamic.NewMessage(md)
	msg.SetFieldByName("source", r.Source)
	for _, c := range r.Candidates {
		msg.AddRepeatedFieldByName("candidates", c)
	}
	return msg
}

func tokenizeRequestFrom(msg *dynamic.Message) TokenizeRequest {
	return TokenizeRequest{
		Source:     stringField(msg, "source"),
		Candidates: stringsField(msg, "candidates"),
	}
}

func (r TokenizeResponse) toMessage(md, tokenMD *desc.MessageDescriptor) *dynamic.Message {
	msg := dynamic.NewMessage(md)
	for _, tok := range r.Tokens {
		tm := dynamic.NewMessage(tokenMD)
		tm.SetFieldByName("kind", string(tok.Type))
		tm.SetFieldByName("lexeme", tok.Lexeme)
		tm.SetFieldByName("start", uint32(tok.Start))
		tm.SetFieldByName("end", uint32(tok.End))
		tm.SetFieldByName("line", uint32(tok.Line))
		tm.SetFieldByName("column", uint32(tok.Column))
		msg.AddRepeatedFieldByName("tokens", tm)
	}
	return msg
}

func tokenizeResponseFrom(msg *dynamic.Message) TokenizeResponse {
	var resp TokenizeResponse
	items, _ := msg.GetFieldByName("tokens").([]interface{})
	for _, item := range items {
		tm, ok := item.(*dynamic.Message)
		if !ok {
			continue
		}
		resp.Tokens = append(resp.Tokens, token.Token{
			Type:   token.TokenType(stringField(tm, "kind")),
			Lexeme: stringField(tm, "lexeme"),
			Start:  int(uint32Field(tm, "start")),
			End:    int(uint32Field(tm, "end")),
			Line:   int(uint32Field(tm, "line")),
			Column: int(uint32Field(tm, "column")),
		})
	}
	return resp
}

func stringField(msg *dynamic.Message, name string) string {
	s, _ := msg.GetFieldByName(name).(string)
	return s
}

func bytesField(msg *dynamic.Message, name string) []byte {
	b, _ := msg.GetFieldByName(name).([]byte)
	return b
}

func uint32Field(msg *dynamic.Message, name string) uint32 {
	n, _ := msg.GetFieldByName(name).(uint32)
	return n
}

func stringsField(msg *dynamic.Message, name string) []string {
	items, _ := msg.GetFieldByName(name).([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolsField(msg *dynamic.Message, name string) []bool {
	items, _ := msg.GetFieldByName(name).([]interface{})
	out := make([]bool, 0, len(items))
	for _, item := range items {
		if b, ok := item.(bool); ok {
			out = append(out, b)
		}
	}
	return out
}
