package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

// CategoryRepository manages the category name set, the per-category
// lecture membership lists and the persisted token->name mapping.
type CategoryRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(client *redis.Client, logger *zap.Logger) *CategoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryRepository{client: client, logger: logger}
}

// InitDefault makes sure the default category exists. Called once on
// startup; the default category is never deleted afterwards.
func (r *CategoryRepository) InitDefault(ctx context.Context) error {
	_, err := r.Ensure(ctx, models.DefaultCategory)
	return err
}

// Ensure creates the category if it is missing and returns its token.
// The token is written to the store together with the name, so a cold
// process can resolve tokens it has never rendered.
func (r *CategoryRepository) Ensure(ctx context.Context, name string) (string, error) {
	token := models.CategoryToken(name)

	member, err := r.client.SIsMember(ctx, categoriesKey, name).Result()
	if err != nil {
		return "", fmt.Errorf("redis sismember %s: %w", name, err)
	}

	if !member {
		if err := r.client.SAdd(ctx, categoriesKey, name).Err(); err != nil {
			return "", fmt.Errorf("redis sadd %s: %w", name, err)
		}
		if err := r.client.HSet(ctx, categoryLecturesKey, name, "[]").Err(); err != nil {
			return "", fmt.Errorf("redis hset members %s: %w", name, err)
		}
	}

	// Older records may predate the persisted mapping; refresh it either way.
	if err := r.client.HSet(ctx, categoryTokensKey, token, name).Err(); err != nil {
		return "", fmt.Errorf("redis hset token %s: %w", name, err)
	}

	return token, nil
}

// All returns every category name sorted, with the default category
// always present.
func (r *CategoryRepository) All(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, categoriesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers categories: %w", err)
	}

	hasDefault := false
	for _, name := range names {
		if name == models.DefaultCategory {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		names = append(names, models.DefaultCategory)
	}

	sort.Strings(names)
	return names, nil
}

// Resolve maps a token back to the category name. Unknown tokens fall
// back to the default category.
func (r *CategoryRepository) Resolve(ctx context.Context, token string) (string, error) {
	name, err := r.client.HGet(ctx, categoryTokensKey, token).Result()
	if err != nil {
		if err == redis.Nil {
			return models.DefaultCategory, nil
		}
		return "", fmt.Errorf("redis hget token %s: %w", token, err)
	}
	return name, nil
}

// Delete removes a category, first moving its members into the default
// category's list. The default category itself is protected.
func (r *CategoryRepository) Delete(ctx context.Context, name string) error {
	if name == models.DefaultCategory {
		return appErrors.ErrProtectedCategory
	}

	members, err := r.Members(ctx, name)
	if err != nil {
		return err
	}

	fallback, err := r.Members(ctx, models.DefaultCategory)
	if err != nil {
		return err
	}
	if err := r.writeMembers(ctx, models.DefaultCategory, append(fallback, members...)); err != nil {
		return err
	}

	if err := r.client.SRem(ctx, categoriesKey, name).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", name, err)
	}
	if err := r.client.HDel(ctx, categoryLecturesKey, name).Err(); err != nil {
		return fmt.Errorf("redis hdel members %s: %w", name, err)
	}
	if err := r.client.HDel(ctx, categoryTokensKey, models.CategoryToken(name)).Err(); err != nil {
		return fmt.Errorf("redis hdel token %s: %w", name, err)
	}

	return nil
}

// Members returns the ordered lecture ID list of a category. A missing
// list reads as empty.
func (r *CategoryRepository) Members(ctx context.Context, name string) ([]string, error) {
	raw, err := r.client.HGet(ctx, categoryLecturesKey, name).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, fmt.Errorf("redis hget members %s: %w", name, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal members %s: %w", name, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// AddMember appends a lecture ID to the category list unless present.
func (r *CategoryRepository) AddMember(ctx context.Context, name, lectureID string) error {
	ids, err := r.Members(ctx, name)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if id == lectureID {
			return nil
		}
	}

	return r.writeMembers(ctx, name, append(ids, lectureID))
}

// RemoveMember drops a lecture ID from the category list; absent IDs
// are a no-op.
func (r *CategoryRepository) RemoveMember(ctx context.Context, name, lectureID string) error {
	ids, err := r.Members(ctx, name)
	if err != nil {
		return err
	}

	kept := ids[:0]
	removed := false
	for _, id := range ids {
		if id == lectureID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return nil
	}

	return r.writeMembers(ctx, name, kept)
}

func (r *CategoryRepository) writeMembers(ctx context.Context, name string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal members %s: %w", name, err)
	}
	if err := r.client.HSet(ctx, categoryLecturesKey, name, payload).Err(); err != nil {
		return fmt.Errorf("redis hset members %s: %w", name, err)
	}
	return nil
}
