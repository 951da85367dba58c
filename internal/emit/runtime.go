package emit

// headerText is the public interface of a generated program.
const headerText = `#pragma once

#ifdef __cplusplus
extern "C" {
#endif

#define ScratchNumber double

typedef struct ScratchVariable {
  ScratchNumber number_value;
  char* str_value;
  int is_const_str_value;
} ScratchVariable;

void Scratch_Init(void);

ScratchVariable* Scratch_FindVariable(const char* sprite_name, const char* variable_name);

void Scratch_Advance(ScratchNumber dt);

int Scratch_RunningScripts(void);

#ifdef __cplusplus
}
#endif
`

// runtimeTypes follows the op code enum; it needs SCRATCH_MAX_NESTING.
const runtimeTypes = `typedef void (*InplaceBlockFunction)(struct ScratchSprite* sprite, float dt);
typedef ScratchVariable (*OperandBlockFunction)(struct ScratchSprite* sprite, float dt);

typedef struct ScratchBlock {
  struct ScratchBlock* next;
  struct ScratchBlock* substack;
  ScratchOpCode op_code;
  InplaceBlockFunction inplace_function;
  OperandBlockFunction operand_function;
  struct ScratchSprite* sprite;
  int active;
  ScratchNumber counter;
} ScratchBlock;

typedef struct ScratchSprite {
  float x;
  float y;
  float direction_x;
  float direction_y;
} ScratchSprite;

typedef struct ScratchThread {
  ScratchBlock* stack[SCRATCH_MAX_NESTING + 1];
  int depth;
  int done;
} ScratchThread;
`

const runtimeVariables = `static inline void Scratch_InitVariable(ScratchVariable* variable) {
  variable->number_value = 0;
  variable->str_value = 0;
  variable->is_const_str_value = 0;
}

static inline void Scratch_InitNumberVariable(ScratchVariable* variable, ScratchNumber number_value) {
  variable->number_value = number_value;
  variable->str_value = 0;
  variable->is_const_str_value = 0;
}

static inline void Scratch_InitStringVariable(ScratchVariable* variable, char* str, int is_const_str_value) {
  variable->number_value = 0;
  variable->str_value = str;
  variable->is_const_str_value = is_const_str_value;
}

static inline void Scratch_FreeVariable(ScratchVariable* variable) {
  variable->number_value = 0;

  if (variable->str_value) {
    if (!variable->is_const_str_value) {
      free(variable->str_value);
    }
    variable->str_value = 0;
  }
  variable->is_const_str_value = 0;
}

static inline void Scratch_AssignNumberVariable(ScratchVariable* variable, ScratchNumber number) {
  Scratch_FreeVariable(variable);
  variable->number_value = number;
}

static inline void Scratch_AssignStringVariable(ScratchVariable* variable, const char* str) {
  size_t l = strlen(str);
  char* copy = malloc(l + 1);
  memcpy(copy, str, l + 1);

  Scratch_FreeVariable(variable);
  variable->str_value = copy;
}

static inline ScratchNumber Scratch_ReadNumberVariable(const ScratchVariable* variable) {
  if (variable->str_value) {
    return strtod(variable->str_value, 0);
  }
  return variable->number_value;
}

static inline const char* Scratch_ReadStringVariable(const ScratchVariable* variable, char* buf, size_t size) {
  if (variable->str_value) {
    return variable->str_value;
  }
  snprintf(buf, size, "%.15g", variable->number_value);
  return buf;
}

static inline void Scratch_AssignVariable(ScratchVariable* variable, const ScratchVariable* rhv) {
  if (rhv->str_value) {
    Scratch_AssignStringVariable(variable, rhv->str_value);
  } else {
    Scratch_AssignNumberVariable(variable, rhv->number_value);
  }
}

static inline ScratchVariable Scratch_JoinStringVariables(const ScratchVariable* variable1, const ScratchVariable* variable2) {
  char buf1[32];
  char buf2[32];
  const char* s1 = Scratch_ReadStringVariable(variable1, buf1, sizeof(buf1));
  const char* s2 = Scratch_ReadStringVariable(variable2, buf2, sizeof(buf2));
  size_t size1 = strlen(s1);
  size_t size2 = strlen(s2);

  char* new_string = malloc(size1 + size2 + 1);
  memcpy(new_string, s1, size1);
  memcpy(new_string + size1, s2, size2 + 1);

  ScratchVariable result;
  Scratch_InitStringVariable(&result, new_string, /*is_const_str_value=*/ 0);
  return result;
}

static inline int Scratch_CompareStrings(const char* s1, const char* s2) {
  for (;; ++s1, ++s2) {
    int c1 = tolower((unsigned char) *s1);
    int c2 = tolower((unsigned char) *s2);
    if (c1 != c2 || c1 == 0) {
      return (c1 > c2) - (c1 < c2);
    }
  }
}

static inline int Scratch_IsNumeric(const ScratchVariable* variable) {
  if (!variable->str_value) {
    return 1;
  }
  const char* s = variable->str_value;
  char* end = 0;
  strtod(s, &end);
  if (end == s) {
    return 0;
  }
  while (*end && isspace((unsigned char) *end)) {
    ++end;
  }
  return *end == 0;
}

static inline int Scratch_CompareVariables(const ScratchVariable* variable1, const ScratchVariable* variable2) {
  if (Scratch_IsNumeric(variable1) && Scratch_IsNumeric(variable2)) {
    ScratchNumber n1 = Scratch_ReadNumberVariable(variable1);
    ScratchNumber n2 = Scratch_ReadNumberVariable(variable2);
    return (n1 > n2) - (n1 < n2);
  }
  char buf1[32];
  char buf2[32];
  return Scratch_CompareStrings(
      Scratch_ReadStringVariable(variable1, buf1, sizeof(buf1)),
      Scratch_ReadStringVariable(variable2, buf2, sizeof(buf2)));
}

static inline int Scratch_IsTruthy(const ScratchVariable* variable) {
  if (!variable->str_value) {
    return variable->number_value != 0 && variable->number_value == variable->number_value;
  }
  const char* s = variable->str_value;
  return s[0] != 0 && strcmp(s, "0") != 0 && Scratch_CompareStrings(s, "false") != 0;
}

static ScratchNumber current_time = 0;

static inline ScratchNumber Scratch_sensing_timer(struct ScratchSprite* sprite, float dt) {
  (void) sprite;
  (void) dt;
  return current_time;
}
`

// runtimeScheduler steps one script until it yields: at the end of a loop
// iteration, while waiting, or when the script is finished.
const runtimeScheduler = `static inline void Scratch_PushSubstack(ScratchThread* thread, ScratchBlock* owner) {
  if (thread->depth >= SCRATCH_MAX_NESTING) {
    thread->stack[thread->depth] = owner->next;
    return;
  }
  ++thread->depth;
  thread->stack[thread->depth] = owner->substack;
}

static inline int Scratch_EvalCondition(ScratchBlock* block, float dt) {
  ScratchVariable value = block->operand_function(block->sprite, dt);
  int truthy = Scratch_IsTruthy(&value);
  Scratch_FreeVariable(&value);
  return truthy;
}

static inline ScratchNumber Scratch_EvalNumber(ScratchBlock* block, float dt) {
  ScratchVariable value = block->operand_function(block->sprite, dt);
  ScratchNumber number = Scratch_ReadNumberVariable(&value);
  Scratch_FreeVariable(&value);
  return number;
}

static void Scratch_StepThread(ScratchThread* thread, float dt) {
  while (!thread->done) {
    ScratchBlock* block = thread->stack[thread->depth];
    if (block == 0) {
      if (thread->depth == 0) {
        thread->done = 1;
        return;
      }
      --thread->depth;
      ScratchBlock* owner = thread->stack[thread->depth];
      if (owner->op_code == kScratchControlIf) {
        thread->stack[thread->depth] = owner->next;
        continue;
      }
      // loops resume at their own block on the next frame
      return;
    }

    switch (block->op_code) {
      case kScratchWhenFlagClicked:
        thread->stack[thread->depth] = block->next;
        break;
      case kScratchInPlace:
        block->inplace_function(block->sprite, dt);
        thread->stack[thread->depth] = block->next;
        break;
      case kScratchControlForever:
        if (!block->substack) {
          return;
        }
        Scratch_PushSubstack(thread, block);
        break;
      case kScratchControlIf:
        if (block->substack && Scratch_EvalCondition(block, dt)) {
          Scratch_PushSubstack(thread, block);
        } else {
          thread->stack[thread->depth] = block->next;
        }
        break;
      case kScratchControlWait:
        if (!block->active) {
          block->counter = Scratch_EvalNumber(block, dt);
          block->active = 1;
          return;
        }
        block->counter -= dt;
        if (block->counter > 0) {
          return;
        }
        block->active = 0;
        thread->stack[thread->depth] = block->next;
        break;
      case kScratchControlRepeat:
        if (!block->active) {
          block->counter = round(Scratch_EvalNumber(block, dt));
          block->active = 1;
        }
        if (block->counter >= 1 && block->substack) {
          block->counter -= 1;
          Scratch_PushSubstack(thread, block);
          break;
        }
        block->active = 0;
        thread->stack[thread->depth] = block->next;
        break;
      case kScratchControlStop:
        thread->done = 1;
        return;
      default:
        thread->stack[thread->depth] = block->next;
        break;
    }
  }
}
`
