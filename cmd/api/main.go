package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/salarysys/payroll-backend-go/internal/config"
	appHTTP "github.com/salarysys/payroll-backend-go/internal/handler/http"
	"github.com/salarysys/payroll-backend-go/internal/pkg/cache"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
	"github.com/salarysys/payroll-backend-go/internal/pkg/jwt"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
	"github.com/salarysys/payroll-backend-go/internal/repository/postgresql"
	assignmentService "github.com/salarysys/payroll-backend-go/internal/service/assignment"
	insuranceService "github.com/salarysys/payroll-backend-go/internal/service/insurance"
	payrollService "github.com/salarysys/payroll-backend-go/internal/service/payroll"
	periodService "github.com/salarysys/payroll-backend-go/internal/service/period"
	workflowService "github.com/salarysys/payroll-backend-go/internal/service/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "payroll-backend"),
	)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	// The change feed is best effort: without a broker the engine still
	// serves requests, it just publishes nothing and never invalidates
	// from remote changes.
	var publisher messaging.ChangePublisher = messaging.NopPublisher{}
	var rmq *messaging.RabbitMQ
	rmq, err = messaging.NewRabbitMQ(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, change feed disabled", "error", err)
		rmq = nil
	} else {
		defer rmq.Close()
		if err := rmq.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
			fmt.Println("Error declaring exchange:", err)
			return
		}
		pub, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, "payroll-backend", logger)
		if err != nil {
			fmt.Println("Error creating publisher:", err)
			return
		}
		publisher = pub
	}

	cacheStore := cache.NewStore(cfg.Cache.TTL)
	cacheManager := cache.NewManager(cacheStore, logger)

	if rmq != nil {
		consumer, err := messaging.NewConsumer(rmq, "payroll-backend.cache", logger)
		if err != nil {
			fmt.Println("Error creating consumer:", err)
			return
		}
		if err := consumer.Subscribe(cfg.RabbitMQ.Exchange, "payroll.#"); err != nil {
			fmt.Println("Error subscribing consumer:", err)
			return
		}
		cacheManager.Register(consumer)
		go func() {
			if err := consumer.Start(context.Background()); err != nil {
				logger.Error("consumer stopped", "error", err)
			}
		}()
	}

	periodRepo := postgresql.NewPeriodRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	insuranceRepo := postgresql.NewInsuranceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)

	periodSvc := periodService.NewPeriodService(periodRepo, publisher, logger)
	assignmentSvc := assignmentService.NewAssignmentService(assignmentRepo, periodRepo, publisher, logger)
	resolverSvc := insuranceService.NewResolverService(insuranceRepo, assignmentRepo, periodRepo, payrollRepo, publisher, logger)
	payrollSvc := payrollService.NewPayrollService(db, payrollRepo, periodRepo, cacheStore, publisher, logger)
	pipeline := workflowService.NewPipeline(assignmentSvc, resolverSvc, payrollSvc, cfg.Batch.WorkerLimit, logger)

	newMachine := func() *workflowService.StateMachine {
		return workflowService.NewStateMachine(periodRepo, assignmentRepo, workflowService.StepConfig{
			Skippable: map[workflowService.Step]bool{
				workflowService.StepEmployeePosition: true,
			},
		}, logger)
	}

	periodHandler := appHTTP.NewPeriodHandler(periodSvc)
	assignmentHandler := appHTTP.NewAssignmentHandler(assignmentSvc)
	insuranceHandler := appHTTP.NewInsuranceHandler(resolverSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	workflowHandler := appHTTP.NewWorkflowHandler(newMachine, pipeline)

	router := appHTTP.NewRouter(
		jwtService,
		periodHandler,
		assignmentHandler,
		insuranceHandler,
		payrollHandler,
		workflowHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
