package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/models"
	"github.com/t2s-commerce/shop-api/internal/mykafka"
	"github.com/t2s-commerce/shop-api/internal/repo"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) catalog() *repo.CatalogRepo {
	return &repo.CatalogRepo{DB: h.DB}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	product, err := h.catalog().GetProduct(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	items, err := h.catalog().GetProducts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Stock       int64  `json:"stock"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price cannot be negative")
	}
	if req.Stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "stock cannot be negative")
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if _, err := h.catalog().CreateProduct(c.Request().Context(), &prod); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.catalog().DeleteProduct(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": uint(id),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
