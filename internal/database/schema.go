package database

// StoreSchemaSQL documents the full storefront schema in one place.
// SetupSchema executes the same statements one by one because the MySQL
// driver does not accept multi-statement scripts by default.
const StoreSchemaSQL = `
-- Login accounts for both customers and salespeople
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    password VARCHAR(255) NOT NULL,
    role ENUM('customer', 'sales') NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Customer profile, shares its id with users
CREATE TABLE IF NOT EXISTS customers (
    id BIGINT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    email VARCHAR(255) NOT NULL,
    UNIQUE KEY uk_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- One row per shopping visit; ended_at stays NULL until logout
CREATE TABLE IF NOT EXISTS sessions (
    customer_id BIGINT NOT NULL,
    session_no INT NOT NULL,
    started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at TIMESTAMP NULL,
    PRIMARY KEY (customer_id, session_no),
    FOREIGN KEY (customer_id) REFERENCES customers(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Product catalog; stock_qty is the single source of truth for availability
CREATE TABLE IF NOT EXISTS products (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    category VARCHAR(100) NOT NULL,
    price DECIMAL(10,2) NOT NULL,
    stock_qty INT NOT NULL DEFAULT 0,
    INDEX idx_category (category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Cart lines, unique per (customer, session, product); qty is always > 0
CREATE TABLE IF NOT EXISTS cart_items (
    customer_id BIGINT NOT NULL,
    session_no INT NOT NULL,
    product_id BIGINT NOT NULL,
    qty INT NOT NULL,
    PRIMARY KEY (customer_id, session_no, product_id),
    FOREIGN KEY (product_id) REFERENCES products(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Order headers; order_no is assigned by the order engine, not AUTO_INCREMENT
CREATE TABLE IF NOT EXISTS orders (
    order_no BIGINT PRIMARY KEY,
    customer_id BIGINT NOT NULL,
    session_no INT NOT NULL,
    placed_at TIMESTAMP NOT NULL,
    shipping_address TEXT NOT NULL,
    INDEX idx_customer_id (customer_id),
    INDEX idx_placed_at (placed_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Order lines with the unit price captured at purchase time
CREATE TABLE IF NOT EXISTS order_lines (
    order_no BIGINT NOT NULL,
    line_no INT NOT NULL,
    product_id BIGINT NOT NULL,
    qty INT NOT NULL,
    unit_price DECIMAL(10,2) NOT NULL,
    PRIMARY KEY (order_no, line_no),
    FOREIGN KEY (order_no) REFERENCES orders(order_no),
    FOREIGN KEY (product_id) REFERENCES products(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Search activity log
CREATE TABLE IF NOT EXISTS searches (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    customer_id BIGINT NOT NULL,
    session_no INT NOT NULL,
    searched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    query VARCHAR(500) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

-- Product view log, feeds the top-products-by-views report
CREATE TABLE IF NOT EXISTS product_views (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    customer_id BIGINT NOT NULL,
    session_no INT NOT NULL,
    viewed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    product_id BIGINT NOT NULL,
    INDEX idx_product_id (product_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// SetupSchema creates the storefront tables
func (db *DB) SetupSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
		    id BIGINT PRIMARY KEY,
		    password VARCHAR(255) NOT NULL,
		    role ENUM('customer', 'sales') NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS customers (
		    id BIGINT PRIMARY KEY,
		    name VARCHAR(200) NOT NULL,
		    email VARCHAR(255) NOT NULL,
		    UNIQUE KEY uk_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sessions (
		    customer_id BIGINT NOT NULL,
		    session_no INT NOT NULL,
		    started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		    ended_at TIMESTAMP NULL,
		    PRIMARY KEY (customer_id, session_no),
		    FOREIGN KEY (customer_id) REFERENCES customers(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS products (
		    id BIGINT PRIMARY KEY AUTO_INCREMENT,
		    name VARCHAR(255) NOT NULL,
		    description TEXT,
		    category VARCHAR(100) NOT NULL,
		    price DECIMAL(10,2) NOT NULL,
		    stock_qty INT NOT NULL DEFAULT 0,
		    INDEX idx_category (category)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS cart_items (
		    customer_id BIGINT NOT NULL,
		    session_no INT NOT NULL,
		    product_id BIGINT NOT NULL,
		    qty INT NOT NULL,
		    PRIMARY KEY (customer_id, session_no, product_id),
		    FOREIGN KEY (product_id) REFERENCES products(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS orders (
		    order_no BIGINT PRIMARY KEY,
		    customer_id BIGINT NOT NULL,
		    session_no INT NOT NULL,
		    placed_at TIMESTAMP NOT NULL,
		    shipping_address TEXT NOT NULL,
		    INDEX idx_customer_id (customer_id),
		    INDEX idx_placed_at (placed_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS order_lines (
		    order_no BIGINT NOT NULL,
		    line_no INT NOT NULL,
		    product_id BIGINT NOT NULL,
		    qty INT NOT NULL,
		    unit_price DECIMAL(10,2) NOT NULL,
		    PRIMARY KEY (order_no, line_no),
		    FOREIGN KEY (order_no) REFERENCES orders(order_no),
		    FOREIGN KEY (product_id) REFERENCES products(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS searches (
		    id BIGINT PRIMARY KEY AUTO_INCREMENT,
		    customer_id BIGINT NOT NULL,
		    session_no INT NOT NULL,
		    searched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		    query VARCHAR(500) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS product_views (
		    id BIGINT PRIMARY KEY AUTO_INCREMENT,
		    customer_id BIGINT NOT NULL,
		    session_no INT NOT NULL,
		    viewed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		    product_id BIGINT NOT NULL,
		    INDEX idx_product_id (product_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// CleanupData removes all data (but keeps schema)
func (db *DB) CleanupData() error {
	queries := []string{
		"DELETE FROM product_views",
		"DELETE FROM searches",
		"DELETE FROM order_lines",
		"DELETE FROM orders",
		"DELETE FROM cart_items",
		"DELETE FROM sessions",
		"DELETE FROM products",
		"DELETE FROM customers",
		"DELETE FROM users",
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// DropSchema removes all storefront tables
func (db *DB) DropSchema() error {
	queries := []string{
		"DROP TABLE IF EXISTS product_views",
		"DROP TABLE IF EXISTS searches",
		"DROP TABLE IF EXISTS order_lines",
		"DROP TABLE IF EXISTS orders",
		"DROP TABLE IF EXISTS cart_items",
		"DROP TABLE IF EXISTS sessions",
		"DROP TABLE IF EXISTS products",
		"DROP TABLE IF EXISTS customers",
		"DROP TABLE IF EXISTS users",
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
