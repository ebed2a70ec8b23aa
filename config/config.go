// config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // from DB_PASSWORD
	DBName   string `yaml:"dbname"`
}

type CatalogConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // from CATALOG_PASSWORD
}

type DataSourceConfig struct {
	// OnlinePrefix is prepended to index paths to form the public URL of a
	// file; MirrorPrefix is the matching path on the local compute cluster.
	OnlinePrefix    string `yaml:"online_prefix"`
	MirrorPrefix    string `yaml:"mirror_prefix"`
	MirrorTitleFrom string `yaml:"mirror_title_from"`
	MirrorTitleTo   string `yaml:"mirror_title_to"`
}

type S3Config struct {
	Endpoint       string   `yaml:"endpoint"`
	Region         string   `yaml:"region"`
	UseSSL         bool     `yaml:"use_ssl"`
	AccessKey      string   `yaml:"-"` // from S3_ACCESS_KEY
	SecretKey      string   `yaml:"-"` // from S3_SECRET_KEY
	BucketListCSVs []string `yaml:"bucket_list_csvs"`
	PublicBaseURL  string   `yaml:"public_base_url"`
	Collection     string   `yaml:"collection"`
}

type GeoCubesConfig struct {
	APIURL       string `yaml:"api_url"`
	BaseURL      string `yaml:"base_url"`
	LayerNameCSV string `yaml:"layer_name_csv"`
}

type UpstreamConfig struct {
	Host        string   `yaml:"host"`
	Collections []string `yaml:"collections"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	DataSource DataSourceConfig `yaml:"data_source"`
	S3         S3Config         `yaml:"s3"`
	GeoCubes   GeoCubesConfig   `yaml:"geocubes"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
}

var AppConfig Config

// LoadConfig reads the YAML configuration file and fills in secrets from the
// environment. A .env file in the working directory is honored when present;
// real environment variables win over it.
func LoadConfig(configPath string) error {
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(file, &AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	AppConfig.Database.Password = os.Getenv("DB_PASSWORD")
	AppConfig.Catalog.Password = os.Getenv("CATALOG_PASSWORD")
	AppConfig.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	AppConfig.S3.SecretKey = os.Getenv("S3_SECRET_KEY")

	if AppConfig.DataSource.MirrorTitleFrom == "" {
		AppConfig.DataSource.MirrorTitleFrom = "paituli"
	}
	if AppConfig.DataSource.MirrorTitleTo == "" {
		AppConfig.DataSource.MirrorTitleTo = "puhti"
	}

	return nil
}
