// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package trace

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// Tree renders trace as nested calls.
func (t *Trace) Tree(title string) string {
	root := treeprint.NewWithRoot(title)
	stack := []treeprint.Tree{root}

	for _, event := range t.Events {
		current := stack[len(stack)-1]
		switch {
		case event.Kind.IsEnter():
			branch := current.AddBranch(fmt.Sprintf("%s %s -> %s inputs=%s fuel=%d",
				event.Kind, event.Context.Caller, event.Context.Myself, formatValues(event.Context), event.Context.Fuel))
			if len(event.Context.Incoming) != 0 {
				branch.AddNode("incoming " + formatTransfers(event.Context.Incoming))
			}
			stack = append(stack, branch)
		case event.Kind == CreateAlkane:
			current.AddNode(fmt.Sprintf("%s %s", event.Kind, event.Created))
		default:
			current.AddNode(fmt.Sprintf("%s fuel_used=%d data=%x alkanes=%s",
				event.Kind, event.Response.FuelUsed, event.Response.Data, formatTransfers(event.Response.Alkanes)))
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return root.String()
}

func formatValues(ctx *Context) string {
	values := make([]string, 0, len(ctx.Inputs))
	for _, value := range ctx.Inputs {
		values = append(values, value.String())
	}

	return "[" + strings.Join(values, ",") + "]"
}

func formatTransfers(transfers []balance.Transfer) string {
	items := make([]string, 0, len(transfers))
	for _, transfer := range transfers {
		items = append(items, transfer.ID.String()+"="+transfer.Amount.String())
	}

	return "[" + strings.Join(items, ",") + "]"
}
