package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abelbrown/shelf/internal/catalog"
	"github.com/abelbrown/shelf/internal/logging"
)

// Catalog is the product store the routes read and write.
type Catalog interface {
	ListProducts() ([]catalog.Product, error)
	Categories() ([]string, error)
	GetProduct(id string) (catalog.Product, bool, error)
	SaveProducts(products []catalog.Product) (int, error)
	DeleteProduct(id string) (bool, error)
}

// Controller serves the catalog routes.
type Controller interface {
	ListProducts(c echo.Context) error
	ListCategories(c echo.Context) error
	GetProduct(c echo.Context) error
	CreateProduct(c echo.Context) error
	UpdateProduct(c echo.Context) error
	DeleteProduct(c echo.Context) error
	Health(c echo.Context) error
}

type controller struct {
	catalog Catalog
}

// NewController creates a Controller over cat.
func NewController(cat Catalog) Controller {
	return &controller{catalog: cat}
}

// productQuery mirrors catalog.ViewParameters.Query.
type productQuery struct {
	Search   string `query:"search" validate:"max=200"`
	Sort     string `query:"sort" validate:"sortmode"`
	Category string `query:"category" validate:"max=100"`
}

// productBody is the JSON body of create and update requests.
type productBody struct {
	ID       catalog.ID `json:"id"`
	Name     string     `json:"name" validate:"required,max=200"`
	Category string     `json:"category" validate:"max=100"`
	Price    float64    `json:"price" validate:"gte=0"`
}

func (b productBody) product() catalog.Product {
	return catalog.Product{ID: b.ID, Name: b.Name, Category: b.Category, Price: b.Price}
}

// ListProducts answers GET /products with the derived list for the
// query's search, sort and category.
func (h *controller) ListProducts(c echo.Context) error {
	var q productQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	params, err := catalog.ParseViewParameters(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	products, err := h.catalog.ListProducts()
	if err != nil {
		logging.Error("list products failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load products")
	}

	return c.JSON(http.StatusOK, catalog.Derive(products, params))
}

// ListCategories answers GET /categories.
func (h *controller) ListCategories(c echo.Context) error {
	categories, err := h.catalog.Categories()
	if err != nil {
		logging.Error("list categories failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// GetProduct answers GET /products/:id.
func (h *controller) GetProduct(c echo.Context) error {
	p, ok, err := h.catalog.GetProduct(c.Param("id"))
	if err != nil {
		logging.Error("get product failed", "id", c.Param("id"), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

// CreateProduct answers POST /products. A missing id is generated; an id
// that already exists is a conflict.
func (h *controller) CreateProduct(c echo.Context) error {
	body, err := bindProduct(c)
	if err != nil {
		return err
	}
	p := body.product()
	if p.ID == "" {
		p.ID = catalog.NewID()
	}

	_, exists, err := h.catalog.GetProduct(p.ID.String())
	if err != nil {
		logging.Error("get product failed", "id", p.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save product")
	}
	if exists {
		return echo.NewHTTPError(http.StatusConflict, "product already exists")
	}

	if _, err := h.catalog.SaveProducts([]catalog.Product{p}); err != nil {
		logging.Error("create product failed", "id", p.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save product")
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateProduct answers PUT /products/:id. The body may omit the id but
// must not name a different one.
func (h *controller) UpdateProduct(c echo.Context) error {
	id := c.Param("id")
	body, err := bindProduct(c)
	if err != nil {
		return err
	}
	if body.ID != "" && body.ID.String() != id {
		return echo.NewHTTPError(http.StatusBadRequest, "id in body does not match path")
	}

	_, exists, err := h.catalog.GetProduct(id)
	if err != nil {
		logging.Error("get product failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save product")
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	p := body.product()
	p.ID = catalog.ID(id)
	if _, err := h.catalog.SaveProducts([]catalog.Product{p}); err != nil {
		logging.Error("update product failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save product")
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteProduct answers DELETE /products/:id.
func (h *controller) DeleteProduct(c echo.Context) error {
	ok, err := h.catalog.DeleteProduct(c.Param("id"))
	if err != nil {
		logging.Error("delete product failed", "id", c.Param("id"), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete product")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func bindProduct(c echo.Context) (productBody, error) {
	var body productBody
	if err := c.Bind(&body); err != nil {
		return productBody{}, echo.NewHTTPError(http.StatusBadRequest, "invalid product body")
	}
	if err := c.Validate(body); err != nil {
		return productBody{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return body, nil
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "shelf",
	})
}
