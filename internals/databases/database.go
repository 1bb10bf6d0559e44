package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"admissions_backend/internals/configs"
	courseModel "admissions_backend/internals/features/academics/courses/model"
	enrollmentModel "admissions_backend/internals/features/academics/enrollments/model"
	studentModel "admissions_backend/internals/features/academics/students/model"
	applicantModel "admissions_backend/internals/features/admissions/applicants/model"
)

var DB *gorm.DB

func ConnectDB(cfg *configs.Config) (*gorm.DB, error) {
	log.Println("[DB] connecting to PostgreSQL...")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(cfg.DBLogSQL),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	DB = db
	log.Println("[DB] connected")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("[DB] pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&applicantModel.ApplicantModel{},
		&applicantModel.ApplicantStatusLogModel{},
		&applicantModel.ApplicantNoteModel{},
		&studentModel.StudentModel{},
		&courseModel.CourseModel{},
		&enrollmentModel.CourseEnrollmentModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[DB] migrations applied")
	return nil
}

func WarmUpQueries(db *gorm.DB) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(db); err != nil {
			log.Printf("[DB] warm-up ping err: %v", err)
		}
	}()
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
