package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
)

// MySQLStore implements port.Store on top of database/sql. The oversell
// guard lives here: stock decrements are conditional updates whose
// affected-row count decides success.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, category_id, name, description, price, image_url, created_at
		FROM products WHERE product_id = ?`, id,
	).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, category_id, name, description, price, image_url, created_at
		FROM products ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (m *MySQLStore) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, category_id, name, description, price, image_url, created_at
		FROM products
		WHERE LOWER(name) LIKE CONCAT('%', LOWER(?), '%')
		ORDER BY product_id`, keyword)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (m *MySQLStore) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO products (category_id, name, description, price, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		p.CategoryID, p.Name, p.Description, p.Price, p.ImageURL)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (m *MySQLStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, name = ?, description = ?, price = ?, image_url = ?
		WHERE product_id = ?`,
		p.CategoryID, p.Name, p.Description, p.Price, p.ImageURL, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
	}
	return nil
}

func (m *MySQLStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}

func (m *MySQLStore) GetInventory(ctx context.Context, productID int64) (domain.Inventory, error) {
	var inv domain.Inventory
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, quantity, updated_at
		FROM inventory WHERE product_id = ?`, productID,
	).Scan(&inv.ProductID, &inv.Quantity, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inventory{}, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("query inventory: %w", err)
	}
	return inv, nil
}

func (m *MySQLStore) SetInventory(ctx context.Context, productID int64, quantity int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, quantity, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = NOW()`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}
	return nil
}

func (m *MySQLStore) DecrementInventory(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - ?, updated_at = NOW()
		WHERE product_id = ? AND quantity >= ?`,
		quantity, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("decrement inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CreateOrderWithLines inserts the order header, every line, and the
// per-line conditional decrements inside one transaction. Any decrement
// that matches zero rows aborts the whole order with
// domain.ErrInsufficientStock.
func (m *MySQLStore) CreateOrderWithLines(ctx context.Context, order domain.Order, lines []domain.OrderLine) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, status, total_amount, created_at)
		VALUES (?, ?, ?, NOW())`,
		order.UserID, order.Status, order.Total)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, l := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?)`,
			orderID, l.ProductID, l.Quantity, l.UnitPrice)
		if err != nil {
			return 0, fmt.Errorf("insert order line: %w", err)
		}

		decremented, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = quantity - ?, updated_at = NOW()
			WHERE product_id = ? AND quantity >= ?`,
			l.Quantity, l.ProductID, l.Quantity)
		if err != nil {
			return 0, fmt.Errorf("decrement inventory: %w", err)
		}

		rows, _ := decremented.RowsAffected()
		if rows == 0 {
			return 0, fmt.Errorf("%w: product %d, requested %d", domain.ErrInsufficientStock, l.ProductID, l.Quantity)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return orderID, nil
}

func (m *MySQLStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT order_id, user_id, status, total_amount, created_at
		FROM orders WHERE order_id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}

	o.Lines, err = m.orderLines(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (m *MySQLStore) GetOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, user_id, status, total_amount, created_at
		FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, order_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()

	return m.scanOrdersWithLines(ctx, rows)
}

func (m *MySQLStore) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, user_id, status, total_amount, created_at
		FROM orders ORDER BY created_at DESC, order_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query all orders: %w", err)
	}
	defer rows.Close()

	return m.scanOrdersWithLines(ctx, rows)
}

func (m *MySQLStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ? WHERE order_id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return nil
}

func (m *MySQLStore) InsertReview(ctx context.Context, r domain.Review) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO reviews (user_id, product_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		r.UserID, r.ProductID, r.Rating, r.Comment)
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (m *MySQLStore) ListReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT review_id, user_id, product_id, rating, comment, created_at
		FROM reviews WHERE product_id = ?
		ORDER BY created_at DESC, review_id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (m *MySQLStore) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var avg float64
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = ?`, productID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("query average rating: %w", err)
	}
	return avg, nil
}

func (m *MySQLStore) orderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = ?
		ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (m *MySQLStore) scanOrdersWithLines(ctx context.Context, rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := m.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
