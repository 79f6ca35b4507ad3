package system

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/internal/schema"
	"github.com/lightit/patientreg/internal/storage"
	"github.com/lightit/patientreg/pkg/database"
)

func demoPatients() []schema.Patient {
	return []schema.Patient{
		{
			Name:             "Juan Pérez",
			Email:            "juan.perez@example.com",
			PhoneNumber:      "+54 11 1234-5678",
			DocumentPhotoURL: "/uploads/documents/document-example.jpg",
		},
		{
			Name:             "María González",
			Email:            "maria.gonzalez@example.com",
			PhoneNumber:      "+54 11 2345-6789",
			DocumentPhotoURL: "/uploads/documents/document-example.jpg",
		},
		{
			Name:             "Carlos Ramírez",
			Email:            "carlos.ramirez@example.com",
			PhoneNumber:      "+54 11 3456-7890",
			DocumentPhotoURL: "/uploads/documents/document-example.jpg",
		},
	}
}

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			}()

			repo := storage.NewRepository[schema.Patient](db)
			ctx := context.Background()

			inserted := 0
			for _, p := range demoPatients() {
				p := p
				if err := repo.Create(ctx, &p); err != nil {
					if storage.IsDuplicate(err) {
						fmt.Printf("Skipping %s: already present.\n", p.Email)
						continue
					}
					return fmt.Errorf("failed to insert %s: %w", p.Email, err)
				}
				inserted++
			}

			fmt.Printf("Seed: %d patients inserted.\n", inserted)
			return nil
		},
	}

	return cmd
}
