// Package testdb opens throwaway sqlite databases shaped like the postgres
// schema so repositories can be exercised without a server.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

var schema = []string{
	`CREATE TABLE identities (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  last_sign_in_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE roles (
  id TEXT PRIMARY KEY,
  nombre_rol TEXT NOT NULL UNIQUE,
  permisos TEXT,
  descripcion TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE usuarios (
  id TEXT PRIMARY KEY,
  rol_id TEXT NOT NULL,
  datos_personales TEXT,
  estado TEXT NOT NULL DEFAULT 'activo',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE centros_comerciales (
  id TEXT PRIMARY KEY,
  nombre TEXT NOT NULL,
  direccion TEXT NOT NULL,
  telefono TEXT,
  email_contacto TEXT,
  configuraciones TEXT,
  logo_url TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE locales_comerciales (
  id TEXT PRIMARY KEY,
  centro_comercial_id TEXT NOT NULL,
  codigo_local TEXT NOT NULL,
  area_m2 NUMERIC NOT NULL,
  tipo_local TEXT NOT NULL,
  piso INTEGER,
  estado TEXT NOT NULL DEFAULT 'disponible',
  caracteristicas TEXT,
  fotos_urls TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE contratos_alquiler (
  id TEXT PRIMARY KEY,
  local_id TEXT NOT NULL,
  local_owner_id TEXT NOT NULL,
  fecha_inicio DATE NOT NULL,
  fecha_fin DATE NOT NULL,
  renta_mensual NUMERIC NOT NULL,
  deposito_garantia NUMERIC,
  estado_contrato TEXT NOT NULL DEFAULT 'activo',
  terminos_especiales TEXT,
  documento_contrato_url TEXT,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX uniq_contratos_activo_por_local ON contratos_alquiler(local_id) WHERE estado_contrato = 'activo';`,
	`CREATE TABLE pagos_alquiler (
  id TEXT PRIMARY KEY,
  contrato_id TEXT NOT NULL,
  mes_anio TEXT NOT NULL,
  monto NUMERIC NOT NULL,
  fecha_vencimiento DATE NOT NULL,
  fecha_pago DATE,
  estado_pago TEXT NOT NULL DEFAULT 'pendiente',
  metodo_pago TEXT,
  comprobante_url TEXT,
  created_at DATETIME,
  UNIQUE (contrato_id, mes_anio)
);`,
	`CREATE TABLE solicitudes_informacion (
  id TEXT PRIMARY KEY,
  visitante_id TEXT,
  local_id TEXT NOT NULL,
  nombre_contacto TEXT NOT NULL,
  email_contacto TEXT NOT NULL,
  telefono_contacto TEXT,
  mensaje TEXT NOT NULL,
  estado_solicitud TEXT NOT NULL DEFAULT 'nueva',
  fecha_contacto DATETIME,
  created_at DATETIME
);`,
}

// Open returns a private in-memory database with the full schema applied.
// The pool is pinned to one connection so the memory database outlives
// individual queries; callers inside WithTx must only use the tx handle.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// SeedRoles inserts the four known roles.
func SeedRoles(t testing.TB, db *gorm.DB) map[enums.RoleName]*models.Role {
	t.Helper()
	out := make(map[enums.RoleName]*models.Role, 4)
	for _, name := range []enums.RoleName{enums.RoleNameAdmin, enums.RoleNameOwner, enums.RoleNameVisitor, enums.RoleNameDeveloper} {
		out[name] = MustRole(t, db, string(name))
	}
	return out
}

// MustRole inserts a role row with an arbitrary name.
func MustRole(t testing.TB, db *gorm.DB, name string) *models.Role {
	t.Helper()
	role := &models.Role{ID: uuid.New(), Name: enums.RoleName(name), Permissions: datatypes.JSON(`{}`)}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	return role
}

// MustIdentity inserts an identity with a throwaway hash.
func MustIdentity(t testing.TB, db *gorm.DB, email string) *models.Identity {
	t.Helper()
	identity := &models.Identity{ID: uuid.New(), Email: email, PasswordHash: "hash"}
	if err := db.Create(identity).Error; err != nil {
		t.Fatalf("create identity: %v", err)
	}
	return identity
}

// MustUser inserts an identity plus its profile row.
func MustUser(t testing.TB, db *gorm.DB, roleID uuid.UUID, first, last string) *models.User {
	t.Helper()
	identity := MustIdentity(t, db, fmt.Sprintf("%s@mall.test", uuid.NewString()))
	user := &models.User{
		ID:           identity.ID,
		RoleID:       roleID,
		PersonalData: datatypes.NewJSONType(types.PersonalData{FirstName: first, LastName: last}),
		Status:       enums.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustMall inserts a mall.
func MustMall(t testing.TB, db *gorm.DB, name, address string) *models.Mall {
	t.Helper()
	mall := &models.Mall{ID: uuid.New(), Name: name, Address: address, Settings: datatypes.JSON(`{}`)}
	if err := db.Create(mall).Error; err != nil {
		t.Fatalf("create mall: %v", err)
	}
	return mall
}

// MustUnit inserts a unit.
func MustUnit(t testing.TB, db *gorm.DB, mallID uuid.UUID, code string, typ enums.UnitType, status enums.UnitStatus) *models.Unit {
	t.Helper()
	unit := &models.Unit{
		ID:        uuid.New(),
		MallID:    mallID,
		Code:      code,
		AreaM2:    decimal.NewFromInt(50),
		Type:      typ,
		Status:    status,
		Features:  datatypes.JSON(`{}`),
		PhotoURLs: []string{},
	}
	if err := db.Create(unit).Error; err != nil {
		t.Fatalf("create unit: %v", err)
	}
	return unit
}

// MustContract inserts a contract.
func MustContract(t testing.TB, db *gorm.DB, unitID, ownerID uuid.UUID, status enums.ContractStatus, rent string, start, end time.Time) *models.Contract {
	t.Helper()
	contract := &models.Contract{
		ID:           uuid.New(),
		UnitID:       unitID,
		OwnerID:      ownerID,
		StartDate:    datatypes.Date(start),
		EndDate:      datatypes.Date(end),
		MonthlyRent:  decimal.RequireFromString(rent),
		Status:       status,
		SpecialTerms: datatypes.JSON(`{}`),
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return contract
}

// MustPayment inserts a payment.
func MustPayment(t testing.TB, db *gorm.DB, contractID uuid.UUID, period, amount string, status enums.PaymentStatus, due time.Time) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:         uuid.New(),
		ContractID: contractID,
		Period:     period,
		Amount:     decimal.RequireFromString(amount),
		DueDate:    datatypes.Date(due),
		Status:     status,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}

// MustInquiry inserts an inquiry created at the given time.
func MustInquiry(t testing.TB, db *gorm.DB, unitID uuid.UUID, status enums.InquiryStatus, createdAt time.Time) *models.Inquiry {
	t.Helper()
	inquiry := &models.Inquiry{
		ID:           uuid.New(),
		UnitID:       unitID,
		ContactName:  "Carla Ruiz",
		ContactEmail: "carla@visit.test",
		Message:      "Me interesa el local",
		Status:       status,
		CreatedAt:    createdAt,
	}
	if status != enums.InquiryStatusNew {
		contacted := createdAt.Add(time.Hour)
		inquiry.ContactedAt = &contacted
	}
	if err := db.Create(inquiry).Error; err != nil {
		t.Fatalf("create inquiry: %v", err)
	}
	return inquiry
}
