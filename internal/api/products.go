package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Product is a single catalog record. ID and UpdatedAt are server-assigned;
// Thumbnail is always a URL at rest (file uploads are normalized remotely).
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Status      bool      `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductPage is one server-side page of the collection.
type ProductPage struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// CreateProductRequest is the JSON body of POST /products when the thumbnail
// is a URL reference. File uploads go through CreateProductFile instead.
type CreateProductRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Status      bool   `json:"status"`
}

// ProductFields is a partial update body; only changed fields are present.
type ProductFields map[string]any

// ListProducts fetches one page, filtered by title.
func (c *Client) ListProducts(ctx context.Context, filter string, page int) (ProductPage, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", filter)
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	var result ProductPage
	if err := c.get(ctx, "/products", query, &result); err != nil {
		return ProductPage{}, err
	}
	return result, nil
}

// CreateProduct creates a record whose thumbnail is a URL reference.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	var created Product
	if err := c.post(ctx, "/products", req, &created); err != nil {
		return Product{}, err
	}
	return created, nil
}

// CreateProductFile creates a record with a binary thumbnail payload,
// uploaded as multipart form data.
func (c *Client) CreateProductFile(ctx context.Context, req CreateProductRequest, filename string, file io.Reader) (Product, error) {
	fields := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"status":      strconv.FormatBool(req.Status),
	}
	var created Product
	if err := c.postMultipart(ctx, http.MethodPost, "/products", fields, filename, file, &created); err != nil {
		return Product{}, err
	}
	return created, nil
}

// UpdateProduct sends a partial field update.
func (c *Client) UpdateProduct(ctx context.Context, id string, fields ProductFields) (Product, error) {
	var updated Product
	if err := c.patch(ctx, "/products/"+id, fields, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// ReplaceThumbnailURL swaps a record's thumbnail for a URL reference. The
// service exposes this as an endpoint separate from field updates.
func (c *Client) ReplaceThumbnailURL(ctx context.Context, id, thumbnailURL string) (Product, error) {
	body := map[string]string{"thumbnail": thumbnailURL}
	var updated Product
	if err := c.put(ctx, "/products/"+id+"/thumbnail", body, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// ReplaceThumbnailFile uploads a new binary thumbnail for a record.
func (c *Client) ReplaceThumbnailFile(ctx context.Context, id, filename string, file io.Reader) (Product, error) {
	var updated Product
	if err := c.postMultipart(ctx, http.MethodPut, "/products/"+id+"/thumbnail", nil, filename, file, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes a record.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.delete(ctx, "/products/"+id)
}
