package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/matthieukhl/storefront/internal/auth"
	"github.com/matthieukhl/storefront/internal/cart"
	"github.com/matthieukhl/storefront/internal/catalog"
	"github.com/matthieukhl/storefront/internal/config"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
	"github.com/matthieukhl/storefront/internal/order"
	"github.com/matthieukhl/storefront/internal/report"
	"github.com/matthieukhl/storefront/internal/session"
)

// errExit signals that the user chose to quit the program from a submenu.
var errExit = errors.New("exit requested")

// Shell drives the interactive storefront terminal. It owns all prompting
// and rendering; business rules live in the stores and the order engine.
type Shell struct {
	db       *database.DB
	auth     *auth.Service
	engine   *order.Engine
	sessions *session.Store
	carts    *cart.Store
	products *catalog.Store
	reports  *report.Store
	cfg      *config.Config
	in       *bufio.Reader
}

// New creates a shell over the given store handle and configuration
func New(db *database.DB, cfg *config.Config) *Shell {
	return &Shell{
		db:       db,
		auth:     auth.NewService(db),
		engine:   order.NewEngine(db),
		sessions: session.NewStore(db),
		carts:    cart.NewStore(db),
		products: catalog.NewStore(db),
		reports:  report.NewStore(db),
		cfg:      cfg,
		in:       bufio.NewReader(os.Stdin),
	}
}

// Run shows the login page until the user exits
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Println("\n========= Login Page =========")
		fmt.Println("1. Login")
		fmt.Println("2. Register")
		fmt.Println("3. Exit")
		fmt.Println("==============================")

		switch s.readLine("Please enter your choice: ") {
		case "1":
			user, err := s.loginFlow(ctx)
			if err != nil || user == nil {
				continue
			}
			if err := s.dispatch(ctx, user); errors.Is(err, errExit) {
				return nil
			}
		case "2":
			user, err := s.registerFlow(ctx)
			if err != nil || user == nil {
				continue
			}
			if err := s.customerPage(ctx, user); errors.Is(err, errExit) {
				return nil
			}
		case "3":
			fmt.Println("\n👋 Thank you for visiting!")
			return nil
		default:
			fmt.Println("\n❌ Invalid input! Please select 1, 2 or 3.")
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, user *models.User) error {
	switch user.Role {
	case models.RoleCustomer:
		return s.customerPage(ctx, user)
	case models.RoleSales:
		return s.salesPage(ctx)
	default:
		fmt.Printf("\n❌ Unknown role %q for user %d\n", user.Role, user.ID)
		return nil
	}
}

func (s *Shell) loginFlow(ctx context.Context) (*models.User, error) {
	userID, ok := s.readInt64("\nPlease enter your user id: ")
	if !ok {
		return nil, nil
	}

	password := s.readPassword("Please enter your password: ")
	if password == "" {
		fmt.Println("\n❌ Password cannot be empty!")
		return nil, nil
	}

	user, err := s.auth.Login(ctx, userID, password)
	switch {
	case errors.Is(err, auth.ErrUnknownUser):
		fmt.Println("\n❌ User does not exist! Please sign up first.")
		return nil, nil
	case errors.Is(err, auth.ErrWrongPassword):
		fmt.Println("\n❌ Password is not correct!")
		return nil, nil
	case err != nil:
		fmt.Printf("\n❌ Login failed: %v\n", err)
		return nil, err
	}

	fmt.Printf("\n✅ Welcome back, %s!\n", user.Name)
	return user, nil
}

func (s *Shell) registerFlow(ctx context.Context) (*models.User, error) {
	name := s.readNonEmpty("\nPlease enter your name: ")

	var email string
	for {
		email = strings.ToLower(s.readNonEmpty("Please enter your email address: "))
		if strings.Contains(email, "@") {
			break
		}
		fmt.Println("❌ Please enter a valid email address.")
	}

	var password string
	for {
		password = s.readPassword("Please enter a password: ")
		if password != "" {
			break
		}
		fmt.Println("❌ Password cannot be empty!")
	}

	user, err := s.auth.Register(ctx, name, email, password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		fmt.Println("\n❌ This email address is already registered!")
		return nil, nil
	case err != nil:
		fmt.Printf("\n❌ Registration failed: %v\n", err)
		return nil, err
	}

	fmt.Printf("\n✅ Signed up successfully! Your user id is %d, please remember it.\n", user.ID)
	return user, nil
}

// --- customer pages ---------------------------------------------------------

func (s *Shell) customerPage(ctx context.Context, user *models.User) error {
	key, err := s.sessions.Open(ctx, user.ID)
	if err != nil {
		fmt.Printf("\n❌ Could not start a session: %v\n", err)
		return nil
	}
	defer func() {
		if err := s.sessions.Close(ctx, key); err != nil {
			fmt.Printf("⚠️  Could not close session: %v\n", err)
		}
	}()

	for {
		fmt.Printf("\n========= Main Menu (%s) =========\n", user.Name)
		fmt.Println("1. Search products")
		fmt.Println("2. View product details")
		fmt.Println("3. Add product to cart")
		fmt.Println("4. View cart")
		fmt.Println("5. Checkout")
		fmt.Println("6. My orders")
		fmt.Println("7. Logout")
		fmt.Println("8. Exit program")
		fmt.Println("==================================")

		switch s.readLine("Please enter your choice: ") {
		case "1":
			s.searchFlow(ctx, key)
		case "2":
			s.productDetailsFlow(ctx, key)
		case "3":
			s.addToCartFlow(ctx, key)
		case "4":
			s.viewCartFlow(ctx, key)
		case "5":
			s.checkoutFlow(ctx, key)
		case "6":
			s.myOrdersFlow(ctx, user.ID)
		case "7":
			fmt.Println("\n👋 See you next time!")
			return nil
		case "8":
			fmt.Println("\n👋 Exiting program...")
			return errExit
		default:
			fmt.Println("\n❌ Invalid input! Please select 1-8.")
		}
	}
}

func (s *Shell) searchFlow(ctx context.Context, key models.SessionKey) {
	line := s.readNonEmpty("\nEnter search keywords: ")
	results, err := s.products.Search(ctx, key, strings.Fields(line))
	if err != nil {
		fmt.Printf("❌ Search failed: %v\n", err)
		return
	}
	if len(results) == 0 {
		fmt.Println("No products matched your search.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.StockQty)
	}
	w.Flush()
}

func (s *Shell) productDetailsFlow(ctx context.Context, key models.SessionKey) {
	productID, ok := s.readInt64("\nEnter product id: ")
	if !ok {
		return
	}
	p, err := s.products.ProductByID(ctx, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		fmt.Println("❌ No such product.")
		return
	}
	if err != nil {
		fmt.Printf("❌ Could not load product: %v\n", err)
		return
	}
	if err := s.products.RecordView(ctx, key, productID); err != nil {
		fmt.Printf("⚠️  Could not record view: %v\n", err)
	}

	fmt.Printf("\nID:          %d\n", p.ID)
	fmt.Printf("Name:        %s\n", p.Name)
	fmt.Printf("Category:    %s\n", p.Category)
	fmt.Printf("Price:       %.2f\n", p.Price)
	fmt.Printf("Stock:       %d\n", p.StockQty)
	fmt.Printf("Description: %s\n", p.Description)
}

func (s *Shell) addToCartFlow(ctx context.Context, key models.SessionKey) {
	productID, ok := s.readInt64("\nEnter product id: ")
	if !ok {
		return
	}
	qty, ok := s.readPositiveInt("Enter quantity: ")
	if !ok {
		return
	}

	err := s.carts.UpsertLine(ctx, key, productID, qty, cart.ModeAdd)
	var stockErr *cart.StockError
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		fmt.Println("❌ No such product.")
	case errors.As(err, &stockErr):
		fmt.Printf("❌ Not enough stock: %d available, %d requested.\n", stockErr.Available, stockErr.Requested)
	case err != nil:
		fmt.Printf("❌ Could not update cart: %v\n", err)
	default:
		fmt.Println("✅ Added to cart.")
	}
}

func (s *Shell) viewCartFlow(ctx context.Context, key models.SessionKey) {
	items, err := s.carts.ListLines(ctx, key)
	if err != nil {
		fmt.Printf("❌ Could not load cart: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("\nYour cart is empty.")
		return
	}

	var total float64
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSTOCK\tTOTAL")
	for _, it := range items {
		total += it.LineTotal
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\t%d\t%.2f\n",
			it.ProductID, it.Name, it.UnitPrice, it.Qty, it.StockQty, it.LineTotal)
	}
	w.Flush()
	fmt.Printf("Cart total: %.2f\n", total)

	fmt.Println("\n1. Change quantity")
	fmt.Println("2. Remove item")
	fmt.Println("3. Back")
	switch s.readLine("Please enter your choice: ") {
	case "1":
		productID, ok := s.readInt64("Enter product id: ")
		if !ok {
			return
		}
		qty, ok := s.readNonNegativeInt("Enter new quantity (0 removes the item): ")
		if !ok {
			return
		}
		err := s.carts.UpsertLine(ctx, key, productID, qty, cart.ModeSet)
		var stockErr *cart.StockError
		switch {
		case errors.As(err, &stockErr):
			fmt.Printf("❌ Not enough stock: %d available, %d requested.\n", stockErr.Available, stockErr.Requested)
		case err != nil:
			fmt.Printf("❌ Could not update cart: %v\n", err)
		default:
			fmt.Println("✅ Cart updated.")
		}
	case "2":
		productID, ok := s.readInt64("Enter product id: ")
		if !ok {
			return
		}
		if err := s.carts.RemoveLine(ctx, key, productID); err != nil {
			fmt.Printf("❌ Could not remove item: %v\n", err)
			return
		}
		fmt.Println("✅ Item removed.")
	}
}

func (s *Shell) checkoutFlow(ctx context.Context, key models.SessionKey) {
	address := s.readNonEmpty("\nEnter shipping address: ")

	orderNo, err := s.engine.PlaceOrder(ctx, key, address)
	var stockErr *order.InsufficientStockError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		fmt.Println("❌ Your cart is empty!")
	case errors.As(err, &stockErr):
		fmt.Printf("❌ Not enough stock for product %d: %d available, %d requested.\n",
			stockErr.ProductID, stockErr.Available, stockErr.Requested)
		fmt.Println("❌ Checkout cancelled, nothing was charged. Please adjust your cart.")
	case err != nil:
		fmt.Printf("❌ Checkout failed, no changes were made: %v\n", err)
	default:
		fmt.Printf("✅ Order placed! Your order number is %d.\n", orderNo)
	}
}

func (s *Shell) myOrdersFlow(ctx context.Context, customerID int64) {
	orders, err := s.engine.OrdersForCustomer(ctx, customerID)
	if err != nil {
		fmt.Printf("❌ Could not load orders: %v\n", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("\nYou have no orders yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tPLACED\tSHIP TO\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n",
			o.OrderNo, o.PlacedAt.Format("2006-01-02 15:04"), o.ShippingAddress, o.Total)
	}
	w.Flush()

	choice := s.readLine("\nEnter an order number for details (blank to go back): ")
	if choice == "" {
		return
	}
	orderNo, err := strconv.ParseInt(choice, 10, 64)
	if err != nil {
		fmt.Println("❌ Order number must be an integer.")
		return
	}

	details, err := s.engine.OrderDetails(ctx, orderNo)
	if err != nil {
		fmt.Printf("❌ Could not load order details: %v\n", err)
		return
	}
	if len(details) == 0 {
		fmt.Println("No such order.")
		return
	}

	dw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(dw, "PRODUCT\tCATEGORY\tQTY\tUNIT PRICE\tTOTAL")
	for _, d := range details {
		fmt.Fprintf(dw, "%s\t%s\t%d\t%.2f\t%.2f\n",
			d.ProductName, d.Category, d.Qty, d.UnitPrice, d.LineTotal)
	}
	dw.Flush()
}

// --- sales pages ------------------------------------------------------------

func (s *Shell) salesPage(ctx context.Context) error {
	for {
		fmt.Println("\n========= Main Menu (Sales) =========")
		fmt.Println("1. Update product information")
		fmt.Println("2. Weekly sales report")
		fmt.Println("3. Top products")
		fmt.Println("4. Logout")
		fmt.Println("5. Exit program")
		fmt.Println("=====================================")

		switch s.readLine("Please enter your choice: ") {
		case "1":
			s.updateProductFlow(ctx)
		case "2":
			s.weeklyReportFlow(ctx)
		case "3":
			s.topProductsFlow(ctx)
		case "4":
			fmt.Println("\n👋 See you next time!")
			return nil
		case "5":
			fmt.Println("\n👋 Exiting program...")
			return errExit
		default:
			fmt.Println("\n❌ Invalid input! Please select 1-5.")
		}
	}
}

func (s *Shell) updateProductFlow(ctx context.Context) {
	var p *models.Product
	for {
		line := s.readLine("\nEnter product id to view/update (q to cancel): ")
		if strings.EqualFold(line, "q") {
			fmt.Println("Cancelled.")
			return
		}
		productID, err := strconv.ParseInt(line, 10, 64)
		if err != nil || productID <= 0 {
			fmt.Println("❌ Product id must be a positive integer. Try again.")
			continue
		}
		p, err = s.products.ProductByID(ctx, productID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			fmt.Println("❌ No such product. Try another id.")
			continue
		}
		if err != nil {
			fmt.Printf("❌ Could not load product: %v\n", err)
			return
		}
		break
	}

	fmt.Printf("\nCurrent product info:\nID: %d\nName: %s\nCategory: %s\nPrice: %.2f\nStock: %d\nDescription: %s\n",
		p.ID, p.Name, p.Category, p.Price, p.StockQty, p.Description)

	for {
		line := s.readLine("\nEnter new price (blank to skip, q to cancel): ")
		if line == "" {
			break
		}
		if strings.EqualFold(line, "q") {
			fmt.Println("Cancelled.")
			return
		}
		price, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Println("❌ Invalid price (must be a number). Try again.")
			continue
		}
		if price < 0 {
			fmt.Println("❌ Price cannot be negative. Try again.")
			continue
		}
		if err := s.products.SetPrice(ctx, p.ID, price); err != nil {
			fmt.Printf("❌ Could not update price: %v\n", err)
		} else {
			fmt.Println("✅ Price updated.")
		}
		break
	}

	for {
		line := s.readLine("Enter new stock (blank to skip, q to cancel): ")
		if line == "" {
			break
		}
		if strings.EqualFold(line, "q") {
			fmt.Println("Cancelled.")
			return
		}
		stock, err := strconv.Atoi(line)
		if err != nil || stock < 0 {
			fmt.Println("❌ Invalid stock (must be a non-negative integer). Try again.")
			continue
		}
		if err := s.products.SetStock(ctx, p.ID, stock); err != nil {
			fmt.Printf("❌ Could not update stock: %v\n", err)
		} else {
			fmt.Println("✅ Stock updated.")
		}
		break
	}
}

func (s *Shell) weeklyReportFlow(ctx context.Context) {
	metrics, err := s.reports.SalesMetrics(ctx, s.cfg.Report.WindowDays)
	if err != nil {
		fmt.Printf("❌ Could not compute sales metrics: %v\n", err)
		return
	}

	fmt.Printf("\n===== Sales Report (last %d days inclusive) =====\n", s.cfg.Report.WindowDays)
	fmt.Printf("Distinct orders:        %d\n", metrics.Orders)
	fmt.Printf("Distinct products sold: %d\n", metrics.Products)
	fmt.Printf("Distinct customers:     %d\n", metrics.Customers)
	fmt.Printf("Avg spent per customer: %.2f\n", metrics.AvgPerCustomer)
	fmt.Printf("Total sales amount:     %.2f\n", metrics.TotalSales)
}

func (s *Shell) topProductsFlow(ctx context.Context) {
	fmt.Println("\n===== Top by Distinct Orders (ties at rank 3 included) =====")
	byOrders, err := s.reports.TopProductsByOrders(ctx)
	if err != nil {
		fmt.Printf("❌ Could not rank products: %v\n", err)
		return
	}
	printRanks(byOrders, "orders")

	fmt.Println("\n===== Top by Views (ties at rank 3 included) =====")
	byViews, err := s.reports.TopProductsByViews(ctx)
	if err != nil {
		fmt.Printf("❌ Could not rank products: %v\n", err)
		return
	}
	printRanks(byViews, "views")
}

func printRanks(ranks []models.ProductRank, unit string) {
	if len(ranks) == 0 {
		fmt.Println("(no data)")
		return
	}
	for i, r := range ranks {
		fmt.Printf("%d. #%d %s  %s=%d\n", i+1, r.ProductID, r.Name, unit, r.Count)
	}
}

// --- input helpers ----------------------------------------------------------

func (s *Shell) readLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := s.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (s *Shell) readNonEmpty(prompt string) string {
	for {
		line := s.readLine(prompt)
		if line != "" {
			return line
		}
		fmt.Println("❌ Input cannot be empty!")
	}
}

func (s *Shell) readInt64(prompt string) (int64, bool) {
	line := s.readLine(prompt)
	v, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		fmt.Println("❌ Input must be an integer.")
		return 0, false
	}
	return v, true
}

func (s *Shell) readPositiveInt(prompt string) (int, bool) {
	line := s.readLine(prompt)
	v, err := strconv.Atoi(line)
	if err != nil || v <= 0 {
		fmt.Println("❌ Input must be a positive integer.")
		return 0, false
	}
	return v, true
}

func (s *Shell) readNonNegativeInt(prompt string) (int, bool) {
	line := s.readLine(prompt)
	v, err := strconv.Atoi(line)
	if err != nil || v < 0 {
		fmt.Println("❌ Input must be a non-negative integer.")
		return 0, false
	}
	return v, true
}

// readPassword reads without echo when stdin is a terminal and falls back to
// a plain line read otherwise (piped input, tests).
func (s *Shell) readPassword(prompt string) string {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(raw))
		}
	}
	line, _ := s.in.ReadString('\n')
	return strings.TrimSpace(line)
}
