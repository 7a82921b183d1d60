package operations

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// IsSerializable returns true if v survives a JSON round trip without losing data.
// Channels, functions and values whose JSON form changes when decoded again are not serializable.
func IsSerializable(lggr logger.Logger, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		lggr.Errorw("Failed to marshal value", "type", reflect.TypeOf(v), "error", err)
		return false
	}

	if v == nil {
		return true
	}

	t := reflect.TypeOf(v)
	ptr := reflect.New(t)
	if err = json.Unmarshal(data, ptr.Interface()); err != nil {
		lggr.Errorw("Failed to unmarshal value", "type", t, "error", err)
		return false
	}

	again, err := json.Marshal(ptr.Elem().Interface())
	if err != nil {
		return false
	}
	if string(again) != string(data) {
		lggr.Errorw("Value does not survive a JSON round trip", "type", t)
		return false
	}

	return true
}

// constructUniqueHashFrom returns the sha256 of the definition and input, used to recognize a
// previous execution of the same operation with the same input. The input is canonicalized first
// so a typed input and the same input decoded from a persisted report hash identically.
func constructUniqueHashFrom(cache *sync.Map, def Definition, input any) (string, error) {
	canonical, err := canonicalize(input)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(struct {
		Def   Definition `json:"def"`
		Input any        `json:"input"`
	}{def, canonical})
	if err != nil {
		return "", err
	}

	key := string(data)
	if cache != nil {
		if h, ok := cache.Load(key); ok {
			return h.(string), nil
		}
	}

	sum := sha256.Sum256(data)
	h := hex.EncodeToString(sum[:])
	if cache != nil {
		cache.Store(key, h)
	}

	return h, nil
}

func canonicalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}
