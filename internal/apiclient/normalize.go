package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// idKeys are coerced to strings on every entity the client decodes.
var idKeys = []string{"id", "owner_id", "item_id", "renter_id", "user_id", "sender_id", "receiver_id", "rental_id"}

// embeddedKeys hold nested entities that get the same treatment.
var embeddedKeys = []string{"item", "user", "owner", "renter", "sender", "receiver"}

// decodeEntity decodes one entity, normalizing identity fields first.
func decodeEntity(data []byte, v any) error {
	raw, err := decodeRaw(data)
	if err != nil {
		return err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("decode entity: expected object, got %T", raw)
	}
	return reencode(normalizeObject(obj), v)
}

// decodeEntities decodes a list of entities, normalizing each element.
func decodeEntities(data []byte, v any) error {
	raw, err := decodeRaw(data)
	if err != nil {
		return err
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("decode entities: expected array, got %T", raw)
	}
	for i, el := range list {
		if obj, ok := el.(map[string]any); ok {
			list[i] = normalizeObject(obj)
		}
	}
	return reencode(list, v)
}

func decodeRaw(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

func reencode(raw any, v any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode response: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func normalizeObject(obj map[string]any) map[string]any {
	if alt, ok := obj["_id"]; ok {
		if cur, has := obj["id"]; !has || cur == nil || cur == "" {
			obj["id"] = alt
		}
		delete(obj, "_id")
	}

	for _, key := range embeddedKeys {
		if nested, ok := obj[key].(map[string]any); ok {
			obj[key] = normalizeObject(nested)
		}
	}

	// a rental may carry its item embedded instead of by reference
	if cur, has := obj["item_id"]; !has || cur == nil || cur == "" {
		if item, ok := obj["item"].(map[string]any); ok {
			if id, ok := item["id"]; ok && id != nil {
				obj["item_id"] = id
			}
		}
	}

	for _, key := range idKeys {
		val, ok := obj[key]
		if !ok || val == nil {
			continue
		}
		if s, ok := idString(val); ok {
			obj[key] = s
		}
	}
	return obj
}

// idString renders an identifier of any wire shape as a string.
func idString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case json.Number:
		return id.String(), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(id), true
	case map[string]any:
		// extended JSON object id
		if oid, ok := id["$oid"]; ok {
			return idString(oid)
		}
		if inner, ok := id["id"]; ok {
			return idString(inner)
		}
	}
	return "", false
}
