package githubcli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Item is one decoded JSON object returned by the GitHub API.
type Item map[string]any

// String returns the named field when it holds a string.
func (item Item) String(fieldName string) string {
	value, ok := item[fieldName].(string)
	if !ok {
		return ""
	}
	return value
}

// Bool returns the named field when it holds a boolean.
func (item Item) Bool(fieldName string) bool {
	value, ok := item[fieldName].(bool)
	return ok && value
}

// Response holds the objects decoded from a gh api call. Object payloads
// yield one item; array payloads yield one item per element.
type Response struct {
	Items []Item
}

// Filter returns a response containing only the items accepted by predicate.
func (response Response) Filter(predicate func(Item) bool) Response {
	filtered := make([]Item, 0, len(response.Items))
	for _, item := range response.Items {
		if predicate == nil || predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return Response{Items: filtered}
}

// Len reports the number of items.
func (response Response) Len() int {
	return len(response.Items)
}

// Strings collects the named string field from every item, skipping blanks.
func (response Response) Strings(fieldName string) []string {
	values := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		value := item.String(fieldName)
		if len(value) == 0 {
			continue
		}
		values = append(values, value)
	}
	return values
}

// decodeResponse reads a stream of JSON values. Paginated gh output
// concatenates one array per page.
func decodeResponse(payload string) (Response, error) {
	if len(strings.TrimSpace(payload)) == 0 {
		return Response{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(payload)))
	decoder.UseNumber()
	response := Response{}
	for {
		var value any
		decodingError := decoder.Decode(&value)
		if errors.Is(decodingError, io.EOF) {
			return response, nil
		}
		if decodingError != nil {
			return Response{}, decodingError
		}

		switch typed := value.(type) {
		case []any:
			for _, element := range typed {
				if object, isObject := element.(map[string]any); isObject {
					response.Items = append(response.Items, Item(object))
				}
			}
		case map[string]any:
			response.Items = append(response.Items, Item(typed))
		}
	}
}
