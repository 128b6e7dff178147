package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Google   GoogleOAuthConfig
	Stripe   StripeConfig
	Gemini   GeminiConfig
	Webhook  WebhookConfig
	Test     TestConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки первичных access-токенов
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// GoogleOAuthConfig содержит настройки Google OAuth
type GoogleOAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	// Дополнительные допустимые audience (например, клиент мобильного приложения)
	ExtraAudiences []string `mapstructure:"extra_audiences"`
}

// StripeConfig содержит настройки создания checkout-сессий
type StripeConfig struct {
	SecretKey          string `mapstructure:"secret_key"`
	PriceCents         int64  `mapstructure:"price_cents"`
	Currency           string `mapstructure:"currency"`
	ProductName        string `mapstructure:"product_name"`
	ProductDescription string `mapstructure:"product_description"`
}

// GeminiConfig содержит настройки клиента генерации объяснений
type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// WebhookConfig содержит настройки интеграции с пайплайном автоматизации
type WebhookConfig struct {
	// AnswerURL — исходящий вебхук, куда отправляются события ответов
	AnswerURL string `mapstructure:"answer_url"`
	// InboundToken — общий секрет для входящих вебхуков (вопросы, объяснения)
	InboundToken string `mapstructure:"inbound_token"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
}

// QuestionConfig описывает вопрос, задаваемый конфигурацией
// (стартовый вопрос сессии и подменный вопрос при сбое очереди)
type QuestionConfig struct {
	QuestionID    string `mapstructure:"question_id"`
	Text          string `mapstructure:"text"`
	OptionA       string `mapstructure:"option_a"`
	OptionB       string `mapstructure:"option_b"`
	OptionC       string `mapstructure:"option_c"`
	OptionD       string `mapstructure:"option_d"`
	CorrectAnswer string `mapstructure:"correct_answer"`
	Difficulty    string `mapstructure:"difficulty"`
	Explanation   string `mapstructure:"explanation"`
}

// TestConfig содержит настройки тестовой сессии и протоколов опроса
type TestConfig struct {
	// Интервал опроса кеша объяснений
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// Потолок количества попыток опроса, после которого показывается заглушка
	MaxPollAttempts int `mapstructure:"max_poll_attempts"`
	// Кулдаун кнопки "Next" после показа результата
	NextCooldownSec int `mapstructure:"next_cooldown_sec"`
	// TTL неактивной сессии в реестре
	SessionTTLMin int `mapstructure:"session_ttl_min"`
	// Длительность триала нового профиля в днях
	TrialDays int `mapstructure:"trial_days"`
	// TTL закешированного объяснения
	ExplanationTTLMin int `mapstructure:"explanation_ttl_min"`

	// Текст, отображаемый при достижении потолка опроса
	PendingExplanation string `mapstructure:"pending_explanation"`
	// Текст объяснения при сбое генеративного провайдера
	FallbackExplanation string `mapstructure:"fallback_explanation"`

	InitialQuestion  QuestionConfig `mapstructure:"initial_question"`
	FallbackQuestion QuestionConfig `mapstructure:"fallback_question"`
}

// PollInterval возвращает интервал опроса как time.Duration
func (t *TestConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}

// NextCooldown возвращает кулдаун кнопки "Next" как time.Duration
func (t *TestConfig) NextCooldown() time.Duration {
	return time.Duration(t.NextCooldownSec) * time.Second
}

// SessionTTL возвращает TTL сессии как time.Duration
func (t *TestConfig) SessionTTL() time.Duration {
	return time.Duration(t.SessionTTLMin) * time.Minute
}

// ExplanationTTL возвращает TTL кеша объяснений как time.Duration
func (t *TestConfig) ExplanationTTL() time.Duration {
	return time.Duration(t.ExplanationTTLMin) * time.Minute
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию для протоколов опроса (наблюдаемые значения
	// исходной системы: опрос каждые 2с, потолок 10 попыток, кулдаун 3с)
	vip.SetDefault("test.poll_interval_ms", 2000)
	vip.SetDefault("test.max_poll_attempts", 10)
	vip.SetDefault("test.next_cooldown_sec", 3)
	vip.SetDefault("test.session_ttl_min", 120)
	vip.SetDefault("test.trial_days", 7)
	vip.SetDefault("test.explanation_ttl_min", 60)
	vip.SetDefault("test.pending_explanation", "AI explanation is being generated. Please wait a moment.")
	vip.SetDefault("test.fallback_explanation", "The correct answer is based on established nursing knowledge. Review your study materials to understand the underlying concepts.")
	vip.SetDefault("gemini.model", "gemini-1.5-flash-latest")
	vip.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	vip.SetDefault("gemini.timeout_sec", 15)
	vip.SetDefault("webhook.timeout_sec", 10)
	vip.SetDefault("stripe.price_cents", 2999)
	vip.SetDefault("stripe.currency", "usd")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	vip.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	vip.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")

	vip.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")
	vip.BindEnv("gemini.api_key", "GEMINI_API_KEY")

	vip.BindEnv("webhook.answer_url", "WEBHOOK_ANSWER_URL")
	vip.BindEnv("webhook.inbound_token", "WEBHOOK_INBOUND_TOKEN")

	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит файл и привязанные env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Google Client ID Set: %t", cfg.Google.ClientID != "")
		log.Printf("Stripe Secret Key Set: %t", cfg.Stripe.SecretKey != "")
		log.Printf("Gemini API Key Set: %t", cfg.Gemini.APIKey != "")
		log.Printf("Answer Webhook URL Set: %t", cfg.Webhook.AnswerURL != "")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Google.ClientID == "" {
		return nil, fmt.Errorf("Google OAuth client id is required in config (check GOOGLE_CLIENT_ID env var)")
	}
	// Отсутствие ключей Stripe/Gemini не фатально: соответствующие операции
	// деградируют до ошибки checkout и заглушки объяснения
	if cfg.Stripe.SecretKey == "" {
		log.Println("Warning: STRIPE_SECRET_KEY is not set, checkout initiation will fail.")
	}
	if cfg.Gemini.APIKey == "" {
		log.Println("Warning: GEMINI_API_KEY is not set, explanations will rely on webhook writes only.")
	}
	if cfg.Test.FallbackQuestion.Text == "" {
		return nil, fmt.Errorf("fallback question must be configured (test.fallback_question)")
	}
	if cfg.Test.InitialQuestion.Text == "" {
		return nil, fmt.Errorf("initial question must be configured (test.initial_question)")
	}

	return &cfg, nil
}
