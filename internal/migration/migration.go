package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	distributiondomain "github.com/smallbiznis/settlement/internal/distribution/domain"
	feedomain "github.com/smallbiznis/settlement/internal/fee/domain"
	ledgerdomain "github.com/smallbiznis/settlement/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&orderdomain.Order{},
		&orderdomain.LineItem{},
		&settlementdomain.Settlement{},
		&settlementdomain.SettlementItem{},
		&auditdomain.AuditLog{},
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&feedomain.FeeInvoice{},
		&feedomain.FeePayment{},
		&distributiondomain.OrgSettlement{},
		&ledgerdomain.RemittanceLedgerEntry{},
	}
}

// AutoMigrate creates the schema from the models. Used for databases the
// embedded migrations do not target.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
