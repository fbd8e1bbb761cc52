package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type AddFoodRecordRequest struct {
	FoodID   int64  `json:"foodId" form:"foodId"`
	FoodName string `json:"foodName" form:"foodName"`
}

func (h *Handler) SearchFood(c echo.Context) error {
	foods, err := h.foods.Search(c.Request().Context(), c.QueryParam("keyword"))
	if err != nil {
		return err
	}
	return ok(c, "search completed", foods)
}

func (h *Handler) AddFoodRecord(c echo.Context) error {
	var in AddFoodRecordRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed food record request")
	}

	rec, err := h.records.Add(c.Request().Context(), currentMemberID(c), in.FoodID, in.FoodName)
	if err != nil {
		return err
	}
	return ok(c, "food record saved", rec)
}

func (h *Handler) TodayFoodRecords(c echo.Context) error {
	views, err := h.records.TodayWithNutrition(c.Request().Context(), currentMemberID(c))
	if err != nil {
		return err
	}
	return ok(c, "today's food records", views)
}

func (h *Handler) DeleteFoodRecord(c echo.Context) error {
	recordID, err := strconv.ParseInt(c.Param("recordId"), 10, 64)
	if err != nil || recordID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "recordId must be a positive integer")
	}

	if err := h.records.Delete(c.Request().Context(), currentMemberID(c), recordID); err != nil {
		return err
	}
	return ok(c, "food record deleted", map[string]int64{"recordId": recordID})
}
