package repositories

import (
	"encoding/json"
	"fmt"

	"inkwell/app/models"

	"github.com/google/uuid"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix = "post:"
	UserKeyPrefix = "user:"
)

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

func userKey(id string) []byte {
	return []byte(UserKeyPrefix + id)
}

// newID generates an id for a new post or comment
func newID() string {
	return uuid.NewString()
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

// mergeProfile copies the editable profile fields of src onto dst.
func mergeProfile(dst, src *models.User) {
	dst.Name = src.Name
	dst.Email = src.Email
	dst.Avatar = src.Avatar
	dst.Bio = src.Bio
	dst.UpdatedAt = src.UpdatedAt
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
