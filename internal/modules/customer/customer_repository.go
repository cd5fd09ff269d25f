package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/models"

	"github.com/jackc/pgx/v5"
)

// RepositoryInterface defines storage for customers and their addresses.
// Every method is scoped to the owning user.
type RepositoryInterface interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	WithTx(tx pgx.Tx) RepositoryInterface

	Create(ctx context.Context, userID string, customer *models.Customer) (*models.Customer, error)
	FindByID(ctx context.Context, userID, customerID string) (*models.Customer, error)
	LockByID(ctx context.Context, userID, customerID string) error
	List(ctx context.Context, userID string, params models.ListParams) ([]models.Customer, int, error)
	Update(ctx context.Context, userID, customerID string, fields UpdateFields) (*models.Customer, error)
	Delete(ctx context.Context, userID, customerID string) error

	ListAddresses(ctx context.Context, userID, customerID string) ([]models.CustomerAddress, error)
	FindAddress(ctx context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error)
	AddAddress(ctx context.Context, userID, customerID string, req models.AddAddressRequest) (*models.CustomerAddress, error)
	UpdateAddress(ctx context.Context, userID, customerID, addressID string, req models.UpdateAddressRequest) (*models.CustomerAddress, error)
	ClearPrimaryAddress(ctx context.Context, userID, customerID string) error
	DeleteAddress(ctx context.Context, userID, customerID, addressID string) error
}

// UpdateFields holds the customer columns a partial update may change.
type UpdateFields struct {
	Name         *string
	Email        *string
	Phone        *string
	PasswordHash *string
}

// sortColumns maps the accepted sortBy values onto columns.
var sortColumns = map[string]string{
	"":          "created_at",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"email":     "email",
	"phone":     "phone",
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) RepositoryInterface {
	return &Repository{db: conn}
}

func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *Repository) WithTx(tx pgx.Tx) RepositoryInterface {
	return &Repository{db: tx}
}

const customerColumns = `id, user_id, name, email, phone, password_hash, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %w", models.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func mapCustomerWriteError(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err, "customers_user_email_key"):
		return fmt.Errorf("repository.%s: %w: a customer with this email already exists", op, models.ErrConflict)
	case db.IsUniqueViolation(err, "customers_user_phone_key"):
		return fmt.Errorf("repository.%s: %w: a customer with this phone number already exists", op, models.ErrConflict)
	}
	return fmt.Errorf("repository.%s: %w", op, err)
}

func (r *Repository) Create(ctx context.Context, userID string, customer *models.Customer) (*models.Customer, error) {
	query := `
		INSERT INTO customers (user_id, name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + customerColumns
	created, err := scanCustomer(r.db.QueryRow(ctx, query,
		userID, customer.Name, customer.Email, customer.Phone, customer.PasswordHash,
	))
	if err != nil {
		return nil, mapCustomerWriteError("Create", err)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, userID, customerID string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND user_id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, customerID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return c, nil
}

// LockByID takes a row lock on the customer for the rest of the transaction.
func (r *Repository) LockByID(ctx context.Context, userID, customerID string) error {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM customers WHERE id = $1 AND user_id = $2 FOR UPDATE`, customerID, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repository.LockByID: customer %w", models.ErrNotFound)
		}
		return fmt.Errorf("repository.LockByID: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, userID string, params models.ListParams) ([]models.Customer, int, error) {
	column, ok := sortColumns[params.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("repository.List: %w: cannot sort customers by %q", models.ErrInvalidInput, params.SortBy)
	}
	direction := "DESC"
	if params.SortOrder == "asc" {
		direction = "ASC"
	}

	where := []string{"user_id = $1"}
	args := []interface{}{userID}
	if params.Search != "" {
		args = append(args, "%"+db.EscapeLike(params.Search)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d)", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		customerColumns, whereSQL, column, direction, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.Scan: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Rows: %w", err)
	}
	return customers, total, nil
}

func (r *Repository) Update(ctx context.Context, userID, customerID string, fields UpdateFields) (*models.Customer, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *fields.Email)
		argIdx++
	}
	if fields.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argIdx))
		args = append(args, *fields.Phone)
		argIdx++
	}
	if fields.PasswordHash != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argIdx))
		args = append(args, *fields.PasswordHash)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, userID, customerID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, customerID, userID)
	query := fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, customerColumns)

	updated, err := scanCustomer(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("repository.Update: %w", err)
		}
		return nil, mapCustomerWriteError("Update", err)
	}
	return updated, nil
}

// Delete removes the customer. Addresses, orders and shipments go with it (ON DELETE CASCADE).
func (r *Repository) Delete(ctx context.Context, userID, customerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND user_id = $2`, customerID, userID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository.Delete: customer %w", models.ErrNotFound)
	}
	return nil
}

const addressColumns = `a.id, a.customer_id, a.address_name, a.city, a.pin_code, a.state, a.is_primary, a.created_at, a.updated_at`

func scanAddress(row pgx.Row) (*models.CustomerAddress, error) {
	a := &models.CustomerAddress{}
	err := row.Scan(&a.ID, &a.CustomerID, &a.AddressName, &a.City, &a.PinCode, &a.State, &a.IsPrimary, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("address %w", models.ErrNotFound)
		}
		return nil, err
	}
	a.Fill()
	return a, nil
}

// ListAddresses returns the customer's addresses, primary first.
func (r *Repository) ListAddresses(ctx context.Context, userID, customerID string) ([]models.CustomerAddress, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM customer_addresses a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.customer_id = $1 AND c.user_id = $2
		ORDER BY a.is_primary DESC, a.created_at ASC`
	rows, err := r.db.Query(ctx, query, customerID, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAddresses.Query: %w", err)
	}
	defer rows.Close()

	addresses := []models.CustomerAddress{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListAddresses.Scan: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAddresses.Rows: %w", err)
	}
	return addresses, nil
}

func (r *Repository) FindAddress(ctx context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM customer_addresses a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.id = $1 AND a.customer_id = $2 AND c.user_id = $3`
	a, err := scanAddress(r.db.QueryRow(ctx, query, addressID, customerID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindAddress: %w", err)
	}
	return a, nil
}

// AddAddress inserts only when the customer belongs to userID.
func (r *Repository) AddAddress(ctx context.Context, userID, customerID string, req models.AddAddressRequest) (*models.CustomerAddress, error) {
	query := `
		INSERT INTO customer_addresses AS a (customer_id, address_name, city, pin_code, state, is_primary)
		SELECT c.id, $3, $4, $5, $6, $7
		FROM customers c
		WHERE c.id = $1 AND c.user_id = $2
		RETURNING ` + addressColumns
	a, err := scanAddress(r.db.QueryRow(ctx, query,
		customerID, userID, req.AddressName, req.City, req.PinCode, req.State, req.IsPrimary,
	))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("repository.AddAddress: customer %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("repository.AddAddress: %w", err)
	}
	return a, nil
}

func (r *Repository) UpdateAddress(ctx context.Context, userID, customerID, addressID string, req models.UpdateAddressRequest) (*models.CustomerAddress, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.AddressName != nil {
		setClauses = append(setClauses, fmt.Sprintf("address_name = $%d", argIdx))
		args = append(args, *req.AddressName)
		argIdx++
	}
	if req.City != nil {
		setClauses = append(setClauses, fmt.Sprintf("city = $%d", argIdx))
		args = append(args, *req.City)
		argIdx++
	}
	if req.PinCode != nil {
		setClauses = append(setClauses, fmt.Sprintf("pin_code = $%d", argIdx))
		args = append(args, *req.PinCode)
		argIdx++
	}
	if req.State != nil {
		setClauses = append(setClauses, fmt.Sprintf("state = $%d", argIdx))
		args = append(args, *req.State)
		argIdx++
	}
	if req.IsPrimary != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_primary = $%d", argIdx))
		args = append(args, *req.IsPrimary)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindAddress(ctx, userID, customerID, addressID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, addressID, customerID, userID)
	query := fmt.Sprintf(`
		UPDATE customer_addresses AS a SET %s
		FROM customers c
		WHERE a.id = $%d AND a.customer_id = $%d AND c.id = a.customer_id AND c.user_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, argIdx+2, addressColumns)

	a, err := scanAddress(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateAddress: %w", err)
	}
	return a, nil
}

// ClearPrimaryAddress unsets the primary flag on all of the customer's addresses.
func (r *Repository) ClearPrimaryAddress(ctx context.Context, userID, customerID string) error {
	query := `
		UPDATE customer_addresses AS a SET is_primary = FALSE, updated_at = NOW()
		FROM customers c
		WHERE a.customer_id = $1 AND a.is_primary AND c.id = a.customer_id AND c.user_id = $2`
	if _, err := r.db.Exec(ctx, query, customerID, userID); err != nil {
		return fmt.Errorf("repository.ClearPrimaryAddress: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAddress(ctx context.Context, userID, customerID, addressID string) error {
	query := `
		DELETE FROM customer_addresses a
		USING customers c
		WHERE a.id = $1 AND a.customer_id = $2 AND c.id = a.customer_id AND c.user_id = $3`
	tag, err := r.db.Exec(ctx, query, addressID, customerID, userID)
	if err != nil {
		return fmt.Errorf("repository.DeleteAddress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository.DeleteAddress: address %w", models.ErrNotFound)
	}
	return nil
}
