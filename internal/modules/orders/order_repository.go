package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/models"

	"github.com/jackc/pgx/v5"
)

// RepositoryInterface defines the contract for the order repository.
// Every method is scoped to the owning user.
type RepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, userID, orderID string) (*models.Order, error)
	List(ctx context.Context, userID string, filter models.OrderFilter) ([]models.Order, int, error)
	Update(ctx context.Context, userID, orderID string, req models.UpdateOrderRequest) (*models.Order, error)
	UpdateStatus(ctx context.Context, userID, orderID string, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, userID, orderID string) error
}

// sortColumns maps the accepted sortBy values onto columns.
var sortColumns = map[string]string{
	"":              "o.created_at",
	"createdAt":     "o.created_at",
	"updatedAt":     "o.updated_at",
	"orderNumber":   "o.order_number",
	"orderDate":     "to_date(o.order_date, 'DD-MM-YYYY')",
	"orderStatus":   "o.order_status",
	"quantity":      "o.quantity",
	"numberOfBoxes": "o.number_of_boxes",
	"weight":        "o.weight",
	"orderValue":    "o.order_value",
}

// SortColumn resolves sortBy against the allow-list.
func SortColumn(sortBy string) (string, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", fmt.Errorf("%w: cannot sort orders by %q", models.ErrInvalidInput, sortBy)
	}
	return column, nil
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new order repository.
func NewRepository(conn db.DBTX) RepositoryInterface {
	return &Repository{db: conn}
}

const orderFields = `o.id, o.customer_id, o.user_id, o.order_number, o.product_information,
	o.product_description, o.quantity, o.number_of_boxes, o.order_date, o.weight, o.order_value,
	o.length, o.width, o.height, o.order_status, o.special_instructions`

const orderColumns = orderFields + `,
	(SELECT COUNT(*) FROM shipments s WHERE s.order_id = o.id) AS shipment_count,
	o.created_at, o.updated_at`

// scanOrder is a helper function to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.UserID,
		&order.OrderNumber,
		&order.ProductInformation,
		&order.ProductDescription,
		&order.Quantity,
		&order.NumberOfBoxes,
		&order.OrderDate,
		&order.Weight,
		&order.OrderValue,
		&order.Dimensions.Length,
		&order.Dimensions.Width,
		&order.Dimensions.Height,
		&order.OrderStatus,
		&order.SpecialInstructions,
		&order.ShipmentCount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

// Create inserts a new order. The customer must belong to the same user;
// otherwise nothing is inserted and ErrNotFound is returned.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	query := `
		WITH o AS (
			INSERT INTO orders (customer_id, user_id, order_number, product_information, product_description,
				quantity, number_of_boxes, order_date, weight, order_value, length, width, height,
				order_status, special_instructions)
			SELECT c.id, c.user_id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
			FROM customers c
			WHERE c.id = $1 AND c.user_id = $2
			RETURNING *
		)
		SELECT ` + orderFields + `, 0, o.created_at, o.updated_at
		FROM o`

	row := r.db.QueryRow(ctx, query,
		order.CustomerID, order.UserID, order.OrderNumber, order.ProductInformation, order.ProductDescription,
		order.Quantity, order.NumberOfBoxes, order.OrderDate, order.Weight, order.OrderValue,
		order.Dimensions.Length, order.Dimensions.Width, order.Dimensions.Height,
		string(order.OrderStatus), order.SpecialInstructions,
	)
	created, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("repository.Create: customer %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single order owned by userID.
func (r *Repository) FindByID(ctx context.Context, userID, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1 AND o.user_id = $2`

	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

// List returns one page of the user's orders plus the total match count.
func (r *Repository) List(ctx context.Context, userID string, filter models.OrderFilter) ([]models.Order, int, error) {
	column, err := SortColumn(filter.SortBy)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List: %w", err)
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	where := []string{"o.user_id = $1"}
	args := []interface{}{userID}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("o.order_status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+db.EscapeLike(filter.Search)+"%")
		n := len(args)
		conds := []string{
			fmt.Sprintf("o.order_number ILIKE $%d", n),
			fmt.Sprintf("o.product_information ILIKE $%d", n),
			fmt.Sprintf("o.product_description ILIKE $%d", n),
			fmt.Sprintf("o.order_date ILIKE $%d", n),
			fmt.Sprintf("o.order_status ILIKE $%d", n),
			fmt.Sprintf("o.special_instructions ILIKE $%d", n),
		}
		if num, err := strconv.ParseFloat(filter.Search, 64); err == nil {
			args = append(args, num)
			n = len(args)
			conds = append(conds,
				fmt.Sprintf("o.quantity::float8 = $%d", n),
				fmt.Sprintf("o.number_of_boxes::float8 = $%d", n),
				fmt.Sprintf("o.weight = $%d", n),
				fmt.Sprintf("o.order_value = $%d", n),
			)
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE %s ORDER BY %s %s, o.id LIMIT $%d OFFSET $%d`,
		orderColumns, whereSQL, column, direction, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.Scan: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Rows: %w", err)
	}
	return orders, total, nil
}

// Update applies a partial update to the mutable order fields.
func (r *Repository) Update(ctx context.Context, userID, orderID string, req models.UpdateOrderRequest) (*models.Order, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.ProductInformation != nil {
		set("product_information", *req.ProductInformation)
	}
	if req.ProductDescription != nil {
		set("product_description", *req.ProductDescription)
	}
	if req.Quantity != nil {
		set("quantity", *req.Quantity)
	}
	if req.NumberOfBoxes != nil {
		set("number_of_boxes", *req.NumberOfBoxes)
	}
	if req.OrderDate != nil {
		set("order_date", *req.OrderDate)
	}
	if req.Weight != nil {
		set("weight", *req.Weight)
	}
	if req.OrderValue != nil {
		set("order_value", *req.OrderValue)
	}
	if req.Dimensions != nil {
		set("length", req.Dimensions.Length)
		set("width", req.Dimensions.Width)
		set("height", req.Dimensions.Height)
	}
	if req.OrderStatus != nil {
		set("order_status", string(*req.OrderStatus))
	}
	if req.SpecialInstructions != nil {
		set("special_instructions", *req.SpecialInstructions)
	}

	if len(setClauses) == 0 {
		// No fields to update, return the current order data
		return r.FindByID(ctx, userID, orderID)
	}

	set("updated_at", time.Now())
	args = append(args, orderID, userID)

	query := fmt.Sprintf(`
		UPDATE orders o SET %s
		WHERE o.id = $%d AND o.user_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return order, nil
}

// UpdateStatus sets the order status. Any transition is allowed.
func (r *Repository) UpdateStatus(ctx context.Context, userID, orderID string, status models.OrderStatus) (*models.Order, error) {
	query := `
		UPDATE orders o
		SET order_status = $1, updated_at = NOW()
		WHERE o.id = $2 AND o.user_id = $3
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, string(status), orderID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateStatus: %w", err)
	}
	return order, nil
}

// Delete removes an order; its shipments go with it.
func (r *Repository) Delete(ctx context.Context, userID, orderID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("order %w", models.ErrNotFound)
	}
	return nil
}
