package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type CommentsClient struct {
	c *client
}

func NewCommentsClient(baseURL string, opts ...Option) *CommentsClient {
	return &CommentsClient{c: newClient("comments", baseURL, opts...)}
}

type CommentInput struct {
	ProductID string `json:"productId"`
	Author    string `json:"author"`
	Email     string `json:"email,omitempty"`
	Comment   string `json:"comment"`
	Rating    int    `json:"rating,omitempty"`
}

func (cc *CommentsClient) Add(ctx context.Context, in CommentInput) (*domain.Comment, error) {
	var created domain.Comment
	if _, err := cc.c.do(ctx, http.MethodPost, "/comments", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns the product's comments. A payload whose "comments" field is
// not an array yields an empty list; entries that fail to decode are skipped.
func (cc *CommentsClient) List(ctx context.Context, productID string) ([]domain.Comment, error) {
	raw, err := cc.c.do(ctx, http.MethodGet, "/comments?productId="+url.QueryEscape(productID), nil, nil)
	if err != nil {
		return nil, err
	}

	comments := []domain.Comment{}
	field := gjson.GetBytes(raw, "comments")
	if !field.IsArray() {
		return comments, nil
	}

	field.ForEach(func(_, value gjson.Result) bool {
		var c domain.Comment
		if err := json.Unmarshal([]byte(value.Raw), &c); err != nil {
			cc.c.log.Debug("skipping malformed comment", zap.Error(err))
			return true
		}
		comments = append(comments, c)
		return true
	})
	return comments, nil
}
