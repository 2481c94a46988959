package traceingest

import "encoding/json"

// encodeAttributes/encodeEvents/encodeLinks serialize TraceSpan's nested
// fields to JSON for storage in spanRow's *_json columns. Best-effort:
// marshal errors collapse to an empty string rather than failing the
// whole batch, since attributes/events/links are supplementary context,
// never part of an invariant.

func encodeAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return ""
	}
	return string(b)
}

func encodeEvents(events []SpanEvent) string {
	if len(events) == 0 {
		return ""
	}
	b, err := json.Marshal(events)
	if err != nil {
		return ""
	}
	return string(b)
}

func encodeLinks(links []SpanLink) string {
	if len(links) == 0 {
		return ""
	}
	b, err := json.Marshal(links)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeAttributes(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func decodeEvents(raw string) []SpanEvent {
	if raw == "" {
		return nil
	}
	var events []SpanEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil
	}
	return events
}

func decodeLinks(raw string) []SpanLink {
	if raw == "" {
		return nil
	}
	var links []SpanLink
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil
	}
	return links
}

// DecodeAttributes, DecodeEvents and DecodeLinks expose the decode
// helpers above to pkg/tracequery, which needs structured values (not
// the raw JSON text) to populate Arrow map/list<struct> builders.
func DecodeAttributes(raw string) map[string]string { return decodeAttributes(raw) }
func DecodeEvents(raw string) []SpanEvent            { return decodeEvents(raw) }
func DecodeLinks(raw string) []SpanLink              { return decodeLinks(raw) }
