package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"live-placement-backend/internal/config"
	m "live-placement-backend/internal/model"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test fixtures
var (
	// POC user ids, as carried in the JWT subject
	TestPOCTechNovaID  = "poc-technova"
	TestPOCDataForgeID = "poc-dataforge"
	TestAdminID        = "admin-1"

	TestCompanyTechNova  m.Company
	TestCompanyDataForge m.Company
	TestCompanyCloudNine m.Company

	TestStudentAlice m.Student
	TestStudentBob   m.Student
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	cfg := &config.Database{
		Host:                dbHost,
		Port:                dbPort.Port(),
		UseConnectionString: true,
		ConnectionString:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(cfg)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts three companies with one, two and four rounds and two students.
func seedTestData(db *DBinstanceStruct) error {
	companies := []m.Company{
		{Name: "TechNova", MaxRounds: 2, POCIDs: pq.StringArray{TestPOCTechNovaID}},
		{Name: "DataForge", MaxRounds: 4, POCIDs: pq.StringArray{TestPOCDataForgeID}},
		{Name: "CloudNine", MaxRounds: 1},
	}
	if err := db.Create(&companies).Error; err != nil {
		return err
	}
	TestCompanyTechNova = companies[0]
	TestCompanyDataForge = companies[1]
	TestCompanyCloudNine = companies[2]

	students := []m.Student{
		{Name: "Alice Nguyen", Email: ptr("alice@example.com")},
		{Name: "Bob Somsak", Email: ptr("bob@example.com")},
	}
	if err := db.Create(&students).Error; err != nil {
		return err
	}
	TestStudentAlice = students[0]
	TestStudentBob = students[1]

	return nil
}

// NewTestStudent inserts a fresh student so a test can mutate it freely.
func NewTestStudent(db *DBinstanceStruct, name string) (m.Student, error) {
	student := m.Student{Name: name, Email: ptr(uuid.NewString() + "@example.com")}
	err := db.Create(&student).Error
	return student, err
}

// NewTestCompany inserts a fresh company so a test can freeze it or change its POCs.
func NewTestCompany(db *DBinstanceStruct, name string, maxRounds int, pocIDs ...string) (m.Company, error) {
	company := m.Company{Name: name, MaxRounds: maxRounds, POCIDs: pq.StringArray(pocIDs)}
	err := db.Create(&company).Error
	return company, err
}

// ptr helper
func ptr[T any](v T) *T { return &v }
