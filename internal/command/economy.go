package command

import (
	"context"
	"fmt"

	"github.com/keshon/server-warden/internal/gateway"
)

type BalanceCommand struct{}

func (c *BalanceCommand) Name() string        { return "balance" }
func (c *BalanceCommand) Description() string { return "Show a wallet" }
func (c *BalanceCommand) Usage() string       { return "[@member]" }
func (c *BalanceCommand) Category() string    { return CategoryEconomy }
func (c *BalanceCommand) Aliases() []string   { return []string{"bal", "wallet"} }

func (c *BalanceCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _ := targetOrSelf(cc, args)
	bal, err := cc.Wallet.Balance(ctx, target)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🪙 %s has **%d** coins", mention(target), bal))
}

type DailyCommand struct{}

func (c *DailyCommand) Name() string        { return "daily" }
func (c *DailyCommand) Description() string { return "Claim your daily coins" }
func (c *DailyCommand) Usage() string       { return "" }
func (c *DailyCommand) Category() string    { return CategoryEconomy }

func (c *DailyCommand) Run(ctx context.Context, cc *Context, _ []string) error {
	bal, err := cc.Wallet.Daily(ctx, cc.Msg.AuthorID)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🪙 Daily claimed, you now have **%d** coins", bal))
}

type GiveCommand struct{}

func (c *GiveCommand) Name() string        { return "give" }
func (c *GiveCommand) Description() string { return "Give coins to another member" }
func (c *GiveCommand) Usage() string       { return "@member <amount>" }
func (c *GiveCommand) Category() string    { return CategoryEconomy }

func (c *GiveCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest, err := requireTarget(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return gateway.Validationf("how many coins?")
	}
	amount, err := parseInt(rest[0], "amount")
	if err != nil {
		return err
	}
	left, err := cc.Wallet.Transfer(ctx, cc.Msg.AuthorID, target, amount)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🪙 %s gave %d coins to %s and has %d left",
		mention(cc.Msg.AuthorID), amount, mention(target), left))
}
