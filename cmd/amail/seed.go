package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/amail-io/amail-ce/internal/app"
	"github.com/amail-io/amail-ce/internal/config"
	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/service"
)

var (
	seedConfigPath string
	seedGroup      string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the ticket store with sample data",
	Long: `Seed writes a set of realistic sample tickets with threaded
conversations into the configured store. Tickets are created through the
lifecycle engine and messages through the thread manager, so aggregate
fields (message_count, last_message_at, next_action) stay consistent
with the message log.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedConfigPath, "config", "config.yaml", "Path to the configuration file")
	seedCmd.Flags().StringVar(&seedGroup, "group", "Litigation", "Ticket group to file sample tickets under")
}

type seedScenario struct {
	client   models.Client
	subject  string
	category string
	channel  string
	priority string
	opening  string
	replies  []string
}

var scenarios = []seedScenario{
	{
		client:   models.Client{FirstName: "Sarah", LastName: "Johnson", Email: "sarah.j@email.com", Phone: "+44-20-7123-4567"},
		subject:  "Personal injury claim - car accident",
		category: "personal injury",
		channel:  "Website Form",
		priority: models.PriorityHigh,
		opening:  "I was involved in a car accident last month where the other driver ran a red light. I suffered whiplash and my car was totaled. I need legal representation for my injury claim.",
		replies: []string{
			"Thank you for reaching out. Could you share the police report reference and the other driver's insurance details?",
			"I have the police report, reference PR-2214. The other driver is insured with Axion.",
			"Received, thank you. We will open the claim with Axion this week and come back with next steps.",
		},
	},
	{
		client:   models.Client{FirstName: "Michael", LastName: "Chen", Email: "m.chen@techstartup.co.uk", Phone: "+44-161-555-0123"},
		subject:  "Contract dispute with supplier",
		category: "commercial litigation",
		channel:  "Direct Email",
		priority: models.PriorityMedium,
		opening:  "Our main supplier has breached their delivery contract, causing significant delays to our product launch. We need to pursue damages and exit the contract.",
		replies: []string{
			"Understood. Please upload the signed contract and the delivery correspondence to the portal.",
			"Documents uploaded. The breach is in clause 7.2, delivery windows.",
		},
	},
	{
		client:   models.Client{FirstName: "Emma", LastName: "Williams", Email: "e.williams@gmail.com", Phone: "+44-121-999-8877"},
		subject:  "Employment discrimination case",
		category: "employment law",
		channel:  "Phone Call",
		priority: models.PriorityHigh,
		opening:  "I believe I was discriminated against at work due to my pregnancy. I was passed over for a promotion I deserved after announcing it.",
		replies: []string{
			"I'm sorry to hear this. Do you have written records of the promotion process and any related communication?",
		},
	},
	{
		client:   models.Client{FirstName: "James", LastName: "Thompson", Email: "james.thompson@property.com", Phone: "+44-113-456-7890"},
		subject:  "Property boundary dispute",
		category: "property law",
		channel:  "Client Portal",
		priority: models.PriorityMedium,
		opening:  "My neighbor has built a fence that encroaches two feet onto my property. I have the original survey documents and they refuse to acknowledge the boundary.",
		replies: []string{
			"Please send the survey documents. A formal boundary determination letter is usually the first step.",
			"Survey attached. What are the likely costs if this goes to court?",
			"Most boundary disputes settle after the determination letter. We'll prepare a cost estimate for both paths.",
		},
	},
	{
		client:   models.Client{FirstName: "Robert", LastName: "Wilson", Email: "r.wilson@innovatetech.co.uk", Phone: "+44-131-777-5555"},
		subject:  "Intellectual property theft",
		category: "IP law",
		channel:  "Direct Email",
		priority: models.PriorityUrgent,
		opening:  "A competitor has stolen our proprietary software code and is using it in their product. We have evidence and need immediate action.",
		replies:  nil,
	},
}

var agents = []string{"j.mercer", "a.okafor", "l.hartley"}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := config.Load(seedConfigPath); err != nil {
		return err
	}
	cfg := config.Get()
	app.SetupLogging(cfg)

	ctx := context.Background()
	stores, err := app.BuildStores(ctx, cfg)
	if err != nil {
		return err
	}
	messageSvc := service.NewMessageService(stores.Messages, stores.Tickets)
	ticketSvc := service.NewTicketService(stores.Tickets, messageSvc, cfg.Ticket.StrictStatus)

	fmt.Printf("Seeding %d sample tickets into the %s store...\n", len(scenarios), cfg.Store.Driver)

	for _, sc := range scenarios {
		ticket, err := ticketSvc.Create(ctx, &models.CreateTicketRequest{
			Subject:        sc.subject,
			Client:         sc.client,
			Channel:        sc.channel,
			TicketGroup:    seedGroup,
			Priority:       sc.priority,
			Category:       sc.category,
			InitialMessage: sc.opening,
		})
		if err != nil {
			return fmt.Errorf("seed ticket %q: %w", sc.subject, err)
		}

		agent := agents[rand.Intn(len(agents))]
		for i, text := range sc.replies {
			// Replies alternate agent/client, starting with the agent.
			req := &models.AppendMessageRequest{
				Text:          text,
				CreatedByType: string(models.SenderAgent),
				CreatedByID:   agent,
				CreatedSource: "Internal CRM",
			}
			if i%2 == 1 {
				req.CreatedByType = string(models.SenderClient)
				req.CreatedByID = sc.client.Email
				req.CreatedSource = sc.channel
			}
			if _, err := messageSvc.Append(ctx, ticket.TicketID, req); err != nil {
				return fmt.Errorf("seed message on %s: %w", ticket.TicketID, err)
			}
		}

		if len(sc.replies) > 0 {
			if _, err := ticketSvc.Update(ctx, ticket.TicketID, &models.TicketPatch{
				AssignedTo: &agent,
				Status:     strPtr(string(models.StatusInProgress)),
			}); err != nil {
				return fmt.Errorf("assign %s: %w", ticket.TicketID, err)
			}
		}

		fmt.Printf("  created %s (%d messages) %s\n", ticket.TicketID, 1+len(sc.replies), sc.subject)
	}

	fmt.Println("Seeding complete.")
	return nil
}

func strPtr(s string) *string { return &s }
