package main

import (
	"hotelbook/internal/bookings/handler"
	"hotelbook/internal/bookings/repository"
	"hotelbook/internal/bookings/repository/postgres"
	"hotelbook/internal/bookings/service"
	"hotelbook/internal/bookings/validator"
	"hotelbook/pkg/app"
	"hotelbook/pkg/auth"
	"hotelbook/pkg/config"
	"hotelbook/pkg/events"
	"hotelbook/pkg/kafka"
	kafka_config "hotelbook/pkg/kafka/config"
	"hotelbook/pkg/lock"
)

const (
	ServiceName   = "bookings"
	hotelLockKeys = "hotelbook:lock:hotel:"
)

type repositories struct {
	bookings repository.BookingRepository
	hotels   repository.HotelRepository
	wallets  repository.WalletRepository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")
	cfg.ConnectStore()

	publisher := initPublisher(cfg)
	bookingService, hotelService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(publisher.Close)
	serverApp.SetApp(
		auth.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewHotelHandler(hotelService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (service.BookingService, service.HotelService) {
	repos := initRepositories(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)

	bookingService := service.NewBookingService(
		repos.bookings,
		repos.hotels,
		repos.wallets,
		initLocker(cfg),
		publisher,
		bookingValidator,
		cfg,
	)
	hotelService := service.NewHotelService(repos.hotels, bookingValidator, cfg)

	cfg.Log.Info("Booking service initialized",
		"store_driver", cfg.StoreDriver,
		"lock_backend", cfg.LockBackend,
	)
	return bookingService, hotelService
}

func initRepositories(cfg *config.Config) repositories {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool := cfg.Client.Postgres
		return repositories{
			bookings: postgres.NewBookingRepository(pool, cfg),
			hotels:   postgres.NewHotelRepository(pool, cfg),
			wallets:  postgres.NewWalletRepository(pool, cfg),
		}
	}
	return repositories{
		bookings: repository.NewMongoBookingRepository(cfg),
		hotels:   repository.NewMongoHotelRepository(cfg),
		wallets:  repository.NewMongoWalletRepository(cfg),
	}
}

func initLocker(cfg *config.Config) lock.Locker {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		return lock.NewRedisLocker(cfg.Client.Redis, hotelLockKeys, cfg.LockTTL, cfg.LockWaitTimeout, cfg.LockRetryInterval)
	case config.LockBackendMongo:
		return repository.NewMongoLocker(repository.NewBookingLockRepository(cfg), cfg.LockTTL, cfg.LockWaitTimeout, cfg.LockRetryInterval)
	default:
		return lock.NewKeyedMutex(cfg.LockWaitTimeout)
	}
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	return events.NewKafkaPublisher(producer, ServiceName)
}
